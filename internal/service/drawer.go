package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tillpoint/backend/internal/domain"
	"tillpoint/backend/internal/eventbus"
	"tillpoint/backend/internal/store"
	"tillpoint/backend/internal/xid"
)

// OpenShift starts a new drawer shift. The previous shift (open or closed) and
// its cash movements are replaced; the drawer is a single-slot record, not a
// history. Opening also moves the global current-branch selector.
func (s *Service) OpenShift(ctx context.Context, req domain.ShiftOpenRequest) (*domain.Shift, error) {
	openedBy := strings.TrimSpace(req.OpenedBy)
	if openedBy == "" {
		return nil, errValidation("opened_by is required")
	}
	if !domain.IsValidBranchID(req.BranchID) {
		return nil, errValidation("a valid branch is required")
	}

	openingCash := req.OpeningCash
	if openingCash < 0 {
		openingCash = 0
	}

	shift := domain.Shift{
		ID:          xid.New("shift"),
		Status:      domain.ShiftStatusOpen,
		BranchID:    req.BranchID,
		OpenedAt:    time.Now().UTC(),
		OpenedBy:    openedBy,
		OpeningCash: openingCash,
		CashSales:   0,
	}

	if err := s.repo.SaveDrawer(ctx, domain.DrawerSnapshot{
		Shift:     &shift,
		Movements: []domain.CashMovement{},
	}); err != nil {
		return nil, err
	}
	if err := s.repo.SetCurrentBranch(ctx, req.BranchID); err != nil {
		return nil, err
	}

	s.publishDrawerUpdate(shift.ID)
	s.logAudit(ctx, "shift_open", "shift", shift.ID, fmt.Sprintf("branch=%s,opened_by=%s,opening_cash=%.2f", req.BranchID, openedBy, openingCash))
	return &shift, nil
}

// AddCashMovement records a cash-in or cash-out against the open shift.
// Cash-out is blocked when it would exceed the expected cash in the drawer.
func (s *Service) AddCashMovement(ctx context.Context, req domain.CashMovementRequest) (domain.DrawerStatus, error) {
	snapshot, err := s.repo.GetDrawer(ctx)
	if err != nil {
		return domain.DrawerStatus{}, err
	}
	if snapshot.Shift == nil || snapshot.Shift.Status != domain.ShiftStatusOpen {
		return domain.DrawerStatus{}, store.ErrShiftNotOpen
	}

	if req.Type != domain.CashMovementIn && req.Type != domain.CashMovementOut {
		return domain.DrawerStatus{}, errValidation("movement type must be in or out")
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return domain.DrawerStatus{}, errValidation("reason is required")
	}
	if req.Amount <= 0 {
		return domain.DrawerStatus{}, errValidation("amount must be greater than zero")
	}
	if req.Type == domain.CashMovementOut && req.Amount > expectedCash(snapshot) {
		return domain.DrawerStatus{}, errValidation("cash out exceeds expected cash in drawer")
	}

	movement := domain.CashMovement{
		ID:        xid.New("move"),
		Type:      req.Type,
		Amount:    req.Amount,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
	snapshot.Movements = append([]domain.CashMovement{movement}, snapshot.Movements...)

	if err := s.repo.SaveDrawer(ctx, snapshot); err != nil {
		return domain.DrawerStatus{}, err
	}

	s.publishDrawerUpdate(snapshot.Shift.ID)
	s.logAudit(ctx, "cash_movement", "shift", snapshot.Shift.ID, fmt.Sprintf("type=%s,amount=%.2f,reason=%s", req.Type, req.Amount, reason))
	return drawerStatus(snapshot), nil
}

// CloseShift records the counted cash and closes the shift. The over/short
// figure is derived for display; no corrective movement is written.
func (s *Service) CloseShift(ctx context.Context, req domain.ShiftCloseRequest) (domain.DrawerStatus, error) {
	snapshot, err := s.repo.GetDrawer(ctx)
	if err != nil {
		return domain.DrawerStatus{}, err
	}
	if snapshot.Shift == nil || snapshot.Shift.Status != domain.ShiftStatusOpen {
		return domain.DrawerStatus{}, store.ErrShiftNotOpen
	}

	closedBy := strings.TrimSpace(req.ClosedBy)
	if closedBy == "" {
		return domain.DrawerStatus{}, errValidation("closed_by is required")
	}

	counted := req.CountedCash
	if counted < 0 {
		counted = 0
	}

	now := time.Now().UTC()
	snapshot.Shift.Status = domain.ShiftStatusClosed
	snapshot.Shift.ClosedAt = &now
	snapshot.Shift.ClosedBy = closedBy
	snapshot.Shift.CountedCash = &counted
	snapshot.Shift.Notes = strings.TrimSpace(req.Notes)

	if err := s.repo.SaveDrawer(ctx, snapshot); err != nil {
		return domain.DrawerStatus{}, err
	}

	s.publishDrawerUpdate(snapshot.Shift.ID)
	s.logAudit(ctx, "shift_close", "shift", snapshot.Shift.ID, fmt.Sprintf("closed_by=%s,counted=%.2f", closedBy, counted))
	return drawerStatus(snapshot), nil
}

// UpdateCashSales overrides the shift's running cash-sales figure. It is a
// manual entry, not derived from completed checkouts.
func (s *Service) UpdateCashSales(ctx context.Context, req domain.CashSalesUpdateRequest) (domain.DrawerStatus, error) {
	snapshot, err := s.repo.GetDrawer(ctx)
	if err != nil {
		return domain.DrawerStatus{}, err
	}
	if snapshot.Shift == nil {
		return domain.DrawerStatus{}, store.ErrShiftNotOpen
	}

	cashSales := req.Amount
	if cashSales < 0 {
		cashSales = 0
	}
	snapshot.Shift.CashSales = cashSales

	if err := s.repo.SaveDrawer(ctx, snapshot); err != nil {
		return domain.DrawerStatus{}, err
	}

	s.publishDrawerUpdate(snapshot.Shift.ID)
	s.logAudit(ctx, "cash_sales_update", "shift", snapshot.Shift.ID, fmt.Sprintf("cash_sales=%.2f", cashSales))
	return drawerStatus(snapshot), nil
}

func (s *Service) DrawerStatus(ctx context.Context) (domain.DrawerStatus, error) {
	snapshot, err := s.repo.GetDrawer(ctx)
	if err != nil {
		return domain.DrawerStatus{}, err
	}
	return drawerStatus(snapshot), nil
}

// expectedCash = opening cash + cash sales + cash in - cash out.
func expectedCash(snapshot domain.DrawerSnapshot) float64 {
	var opening, sales float64
	if snapshot.Shift != nil {
		opening = snapshot.Shift.OpeningCash
		sales = snapshot.Shift.CashSales
	}

	var totalIn, totalOut float64
	for _, movement := range snapshot.Movements {
		switch movement.Type {
		case domain.CashMovementIn:
			totalIn += movement.Amount
		case domain.CashMovementOut:
			totalOut += movement.Amount
		}
	}
	return opening + sales + totalIn - totalOut
}

func drawerStatus(snapshot domain.DrawerSnapshot) domain.DrawerStatus {
	status := domain.DrawerStatus{
		Shift:        snapshot.Shift,
		Movements:    snapshot.Movements,
		ExpectedCash: roundToCents(expectedCash(snapshot)),
	}
	if status.Movements == nil {
		status.Movements = []domain.CashMovement{}
	}
	if snapshot.Shift != nil && snapshot.Shift.Status == domain.ShiftStatusClosed && snapshot.Shift.CountedCash != nil {
		overShort := roundToCents(*snapshot.Shift.CountedCash - expectedCash(snapshot))
		status.OverShort = &overShort
	}
	return status
}

func (s *Service) publishDrawerUpdate(shiftID string) {
	s.bus.Publish(eventbus.Event{
		Topic:   eventbus.TopicDrawerShiftUpdated,
		ShiftID: shiftID,
	})
}
