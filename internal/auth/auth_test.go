package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/reisftw/duogesto/internal/core"
	"github.com/reisftw/duogesto/internal/storage/memory"
)

func newAuthFixture(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	return NewService(store), store
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Ana", "ana", "correct horse", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != core.RoleUser {
		t.Fatalf("default role = %q, want user", user.Role)
	}
	if user.PasswordHash == "correct horse" {
		t.Fatal("password stored in plain text")
	}

	got, err := svc.Login(ctx, "ana", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("login returned user %q, want %q", got.ID, user.ID)
	}
}

func TestLoginFailures(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ana", "ana", "correct horse", ""); err != nil {
		t.Fatalf("register: %v", err)
	}

	cases := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "ana", "wrong"},
		{"unknown user", "nobody", "correct horse"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Login(ctx, tc.username, tc.password); !errors.Is(err, core.ErrInvalidCredentials) {
				t.Fatalf("err = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestRegisterRejectsBadInput(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ana", "ana", "short", ""); !errors.Is(err, core.ErrWeakPassword) {
		t.Fatalf("short password: err = %v, want ErrWeakPassword", err)
	}
	if _, err := svc.Register(ctx, "Ana", "   ", "correct horse", ""); !errors.Is(err, core.ErrEmptyUsername) {
		t.Fatalf("blank username: err = %v, want ErrEmptyUsername", err)
	}
}

func TestChangePasswordRejectsWeakNext(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Ana", "ana", "correct horse", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.ChangePassword(ctx, user.ID, "correct horse", "short"); !errors.Is(err, core.ErrWeakPassword) {
		t.Fatalf("err = %v, want ErrWeakPassword", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Ana", "ana", "correct horse", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.ChangePassword(ctx, user.ID, "wrong", "battery staple"); !errors.Is(err, core.ErrInvalidCredentials) {
		t.Fatalf("change with wrong current password: err = %v", err)
	}
	if err := svc.ChangePassword(ctx, user.ID, "correct horse", "battery staple"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	if _, err := svc.Login(ctx, "ana", "correct horse"); !errors.Is(err, core.ErrInvalidCredentials) {
		t.Fatal("old password still works")
	}
	if _, err := svc.Login(ctx, "ana", "battery staple"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestLinkPartnersIsSymmetric(t *testing.T) {
	svc, store := newAuthFixture(t)
	ctx := context.Background()

	ana, err := svc.Register(ctx, "Ana", "ana", "correct horse", "")
	if err != nil {
		t.Fatalf("register ana: %v", err)
	}
	bruno, err := svc.Register(ctx, "Bruno", "bruno", "correct horse", "")
	if err != nil {
		t.Fatalf("register bruno: %v", err)
	}

	if err := svc.LinkPartners(ctx, ana.ID, "bruno"); err != nil {
		t.Fatalf("link: %v", err)
	}

	gotAna, _ := store.GetUser(ctx, ana.ID)
	gotBruno, _ := store.GetUser(ctx, bruno.ID)
	if gotAna.PartnerID != bruno.ID || gotBruno.PartnerID != ana.ID {
		t.Fatalf("links not symmetric: ana->%q bruno->%q", gotAna.PartnerID, gotBruno.PartnerID)
	}

	ids := gotAna.CoupleIDs()
	if len(ids) != 2 || ids[0] != ana.ID || ids[1] != bruno.ID {
		t.Fatalf("couple ids = %v", ids)
	}
}

func TestLinkPartnersRejectsSelf(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	ana, err := svc.Register(ctx, "Ana", "ana", "correct horse", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.LinkPartners(ctx, ana.ID, "ana"); !errors.Is(err, core.ErrSelfLink) {
		t.Fatalf("err = %v, want ErrSelfLink", err)
	}
}

func TestSetAccountingStart(t *testing.T) {
	svc, store := newAuthFixture(t)
	ctx := context.Background()

	ana, err := svc.Register(ctx, "Ana", "ana", "correct horse", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	if err := svc.SetAccountingStart(ctx, ana.ID, start); err != nil {
		t.Fatalf("set start: %v", err)
	}

	got, _ := store.GetUser(ctx, ana.ID)
	if !got.AccountingStartDate.Equal(start) {
		t.Fatalf("start = %v, want %v", got.AccountingStartDate, start)
	}
}
