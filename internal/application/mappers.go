package application

import "github.com/garment-platform/production-service/internal/domain"

// ToWorkUnitDTO converts a domain WorkUnit to WorkUnitDTO
func ToWorkUnitDTO(unit *domain.WorkUnit) *WorkUnitDTO {
	if unit == nil {
		return nil
	}

	return &WorkUnitDTO{
		WorkID:          unit.WorkID,
		BundleNumber:    unit.BundleNumber,
		Article:         unit.Article,
		ArticleName:     unit.ArticleName,
		Operation:       unit.Operation,
		Color:           unit.Color,
		Size:            unit.Size,
		Pieces:          unit.Pieces,
		RatePerPiece:    unit.RatePerPiece,
		MachineType:     unit.MachineType,
		Status:          string(unit.Status),
		Assigned:        unit.Assigned,
		AssignedTo:      unit.AssignedTo,
		OperatorName:    unit.OperatorName,
		SelfAssigned:    unit.SelfAssigned,
		AssignedAt:      unit.AssignedAt,
		StartedAt:       unit.StartedAt,
		CompletedAt:     unit.CompletedAt,
		CompletedPieces: unit.CompletedPieces,
		EarnedAmount:    unit.EarnedAmount,
		PaymentStatus:   string(unit.PaymentStatus),
		HeldAmount:      unit.HeldAmount,
		CanWithdraw:     unit.CanWithdraw,
		Priority:        unit.Priority,
		IsRework:        unit.IsRework,
		CreatedAt:       unit.CreatedAt,
		UpdatedAt:       unit.UpdatedAt,
	}
}

// ToWorkUnitDTOs converts a slice of domain WorkUnits to WorkUnitDTOs
func ToWorkUnitDTOs(units []*domain.WorkUnit) []WorkUnitDTO {
	dtos := make([]WorkUnitDTO, 0, len(units))
	for _, unit := range units {
		if dto := ToWorkUnitDTO(unit); dto != nil {
			dtos = append(dtos, *dto)
		}
	}
	return dtos
}

// ToDamageReportDTO converts a domain DamageReport to DamageReportDTO
func ToDamageReportDTO(report *domain.DamageReport) *DamageReportDTO {
	if report == nil {
		return nil
	}

	dto := &DamageReportDTO{
		ReportID:       report.ReportID,
		WorkID:         report.WorkID,
		BundleNumber:   report.BundleNumber,
		OperatorID:     report.OperatorID,
		OperatorName:   report.OperatorName,
		SupervisorID:   report.SupervisorID,
		DamageType:     report.DamageTypeID,
		Category:       string(report.Category),
		Severity:       string(report.Severity),
		Urgency:        string(report.Urgency),
		PieceNumbers:   report.PieceNumbers,
		PieceCount:     report.PieceCount(),
		Description:    report.Description,
		Status:         string(report.Status),
		ReportedAt:     report.ReportedAt,
		AcknowledgedAt: report.AcknowledgedAt,
		ReturnedAt:     report.ReturnedAt,
		ClosedAt:       report.ClosedAt,
		ReworkWorkID:   report.ReworkWorkID,
		ResolutionNote: report.ResolutionNote,
	}

	if report.Rework != nil {
		dto.Rework = &ReworkDetailsDTO{
			PartsReplaced:    report.Rework.PartsReplaced,
			TimeSpentMinutes: report.Rework.TimeSpentMinutes,
			Quality:          report.Rework.Quality,
			CostEstimate:     report.Rework.CostEstimate,
			CompletedBy:      report.Rework.CompletedBy,
		}
	}

	if report.PaymentImpact != nil {
		dto.PaymentImpact = &PaymentImpactDTO{
			OperatorAtFault: report.PaymentImpact.OperatorAtFault,
			PenaltyAmount:   report.PaymentImpact.PenaltyAmount,
			HeldAmount:      report.PaymentImpact.HeldAmount,
		}
	}

	if report.Escalation != nil {
		dto.Escalation = &EscalationInfoDTO{
			EscalatedAt:        report.Escalation.EscalatedAt,
			OriginalSupervisor: report.Escalation.OriginalSupervisor,
			Reason:             report.Escalation.Reason,
		}
	}

	return dto
}

// ToDamageReportDTOs converts a slice of domain DamageReports to DamageReportDTOs
func ToDamageReportDTOs(reports []*domain.DamageReport) []DamageReportDTO {
	dtos := make([]DamageReportDTO, 0, len(reports))
	for _, report := range reports {
		if dto := ToDamageReportDTO(report); dto != nil {
			dtos = append(dtos, *dto)
		}
	}
	return dtos
}

// ToWalletDTO converts a domain Wallet to WalletDTO
func ToWalletDTO(wallet *domain.Wallet) *WalletDTO {
	if wallet == nil {
		return nil
	}

	return &WalletDTO{
		OperatorID:      wallet.OperatorID,
		AvailableAmount: wallet.AvailableAmount,
		HeldAmount:      wallet.HeldAmount,
		TotalEarned:     wallet.TotalEarned,
		CanWithdraw:     wallet.CanWithdraw,
		HeldBundleCount: len(wallet.HeldBundles),
	}
}

// ToHeldBundleDTOs converts a wallet's held bundles to DTOs
func ToHeldBundleDTOs(bundles []domain.HeldBundle) []HeldBundleDTO {
	dtos := make([]HeldBundleDTO, 0, len(bundles))
	for _, hb := range bundles {
		dtos = append(dtos, HeldBundleDTO{
			ReportID:     hb.ReportID,
			WorkID:       hb.WorkID,
			BundleNumber: hb.BundleNumber,
			Pieces:       hb.Pieces,
			HeldAmount:   hb.HeldAmount,
			Reason:       hb.Reason,
			HeldAt:       hb.HeldAt,
		})
	}
	return dtos
}

// ToWageLedgerEntryDTOs converts ledger entries to DTOs
func ToWageLedgerEntryDTOs(entries []*domain.WageLedgerEntry) []WageLedgerEntryDTO {
	dtos := make([]WageLedgerEntryDTO, 0, len(entries))
	for _, entry := range entries {
		dtos = append(dtos, WageLedgerEntryDTO{
			EntryID:      entry.EntryID,
			OperatorID:   entry.OperatorID,
			WorkID:       entry.WorkID,
			BundleNumber: entry.BundleNumber,
			ReportID:     entry.ReportID,
			Type:         string(entry.Type),
			Amount:       entry.Amount,
			Description:  entry.Description,
			CreatedAt:    entry.CreatedAt,
		})
	}
	return dtos
}

// ToDamageTypeDTOs converts the damage taxonomy to DTOs
func ToDamageTypeDTOs(taxonomy domain.Taxonomy) []DamageTypeDTO {
	dtos := make([]DamageTypeDTO, 0, len(taxonomy))
	for _, dt := range taxonomy {
		dtos = append(dtos, DamageTypeDTO{
			ID:            dt.ID,
			Name:          dt.Name,
			Category:      string(dt.Category),
			Severity:      string(dt.Severity),
			OperatorFault: dt.OperatorFault,
			PenaltyRate:   dt.PenaltyRate,
		})
	}
	return dtos
}
