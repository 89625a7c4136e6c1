package cloudevents

// CloudEvents extension attribute names carried into Kafka message headers
const (
	ExtCorrelationID = "prodcorrelationid"
	ExtBundleNumber  = "prodbundlenumber"
	ExtReportID      = "prodreportid"
)

// WithCorrelation sets the correlation ID and returns the event
func (e *ProductionCloudEvent) WithCorrelation(correlationID string) *ProductionCloudEvent {
	e.CorrelationID = correlationID
	return e
}

// WithBundle sets the bundle number and returns the event
func (e *ProductionCloudEvent) WithBundle(bundleNumber string) *ProductionCloudEvent {
	e.BundleNumber = bundleNumber
	return e
}

// WithReport sets the damage report ID and returns the event
func (e *ProductionCloudEvent) WithReport(reportID string) *ProductionCloudEvent {
	e.ReportID = reportID
	return e
}
