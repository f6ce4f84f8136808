package lifecycle

import (
	"strings"
	"testing"

	"github.com/dentalbook/dentalbook-api/internal/models"
)

func TestCanTransition_FromUpcoming(t *testing.T) {
	for _, to := range []models.BookingStatus{models.StatusConfirmed, models.StatusCancelled, models.StatusCompleted} {
		if err := CanTransition(models.StatusUpcoming, to); err != nil {
			t.Errorf("upcoming -> %s should be allowed, got %v", to, err)
		}
	}
	if err := CanTransition(models.StatusUpcoming, models.StatusBlocked); err == nil {
		t.Error("upcoming -> blocked should be rejected")
	}
}

func TestCanTransition_FromConfirmed(t *testing.T) {
	for _, to := range []models.BookingStatus{models.StatusCancelled, models.StatusCompleted} {
		if err := CanTransition(models.StatusConfirmed, to); err != nil {
			t.Errorf("confirmed -> %s should be allowed, got %v", to, err)
		}
	}
	if err := CanTransition(models.StatusConfirmed, models.StatusUpcoming); err == nil {
		t.Error("confirmed -> upcoming should be rejected")
	}
}

func TestCanTransition_TerminalStatuses(t *testing.T) {
	terminals := []models.BookingStatus{models.StatusCompleted, models.StatusCancelled, models.StatusBlocked}
	all := []models.BookingStatus{
		models.StatusUpcoming, models.StatusConfirmed, models.StatusCompleted,
		models.StatusCancelled, models.StatusBlocked,
	}
	for _, from := range terminals {
		for _, to := range all {
			if from == to {
				continue
			}
			err := CanTransition(from, to)
			if err == nil {
				t.Errorf("%s -> %s should be rejected (terminal status)", from, to)
				continue
			}
			if !strings.Contains(err.Error(), "none (terminal status)") {
				t.Errorf("%s -> %s error should name the terminal status, got %q", from, to, err)
			}
		}
	}
}

func TestCanTransition_SameStatusIsNoop(t *testing.T) {
	if err := CanTransition(models.StatusCompleted, models.StatusCompleted); err != nil {
		t.Errorf("writing back the current status should not error, got %v", err)
	}
}

func TestCanTransition_ErrorNamesValidNextStatuses(t *testing.T) {
	err := CanTransition(models.StatusConfirmed, models.StatusUpcoming)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"cancelled", "completed"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %q", err, want)
		}
	}
}

func TestCanConfirm(t *testing.T) {
	if err := CanConfirm(models.StatusUpcoming); err != nil {
		t.Errorf("upcoming booking should be confirmable, got %v", err)
	}

	for _, status := range []models.BookingStatus{
		models.StatusConfirmed, models.StatusCompleted, models.StatusCancelled, models.StatusBlocked,
	} {
		err := CanConfirm(status)
		if err == nil {
			t.Errorf("confirming a %s booking should fail", status)
			continue
		}
		if !strings.Contains(err.Error(), string(status)) {
			t.Errorf("error should report the current status %s, got %q", status, err)
		}
	}
}

func TestValidTransitionsFrom(t *testing.T) {
	if got := ValidTransitionsFrom(models.StatusUpcoming); len(got) != 3 {
		t.Errorf("upcoming should have 3 next statuses, got %v", got)
	}
	if got := ValidTransitionsFrom(models.StatusBlocked); len(got) != 0 {
		t.Errorf("blocked should have no next statuses, got %v", got)
	}
}
