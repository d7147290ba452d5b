package services

import (
	"context"
	"testing"
	"time"

	"github.com/jarboard/backend/internal/repos"
	"github.com/jarboard/backend/internal/requestdata"
	"github.com/jarboard/backend/internal/types"
)

func newAuthEnv(t *testing.T) AuthService {
	t.Helper()
	db := newTestDB(t)
	log := mustTestLogger(t)
	return NewAuthService(
		db,
		log,
		repos.NewUserRepo(db, log),
		repos.NewUserTokenRepo(db, log),
		"test-secret",
		15*time.Minute,
		24*time.Hour,
	)
}

func registerAndLogin(t *testing.T, auth AuthService) (string, string) {
	t.Helper()
	user := &types.User{
		Email:     "new@example.com",
		Password:  "hunter2hunter2",
		FirstName: "New",
		LastName:  "User",
	}
	if err := auth.RegisterUser(context.Background(), user); err != nil {
		t.Fatalf("register: %v", err)
	}
	access, refresh, err := auth.LoginUser(context.Background(), "new@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return access, refresh
}

func TestRegisterLoginAndTokenContext(t *testing.T) {
	auth := newAuthEnv(t)
	access, refresh := registerAndLogin(t, auth)
	if access == "" || refresh == "" {
		t.Fatal("expected non-empty token pair")
	}

	ctx, err := auth.SetContextFromToken(context.Background(), access)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID.String() == "" || rd.RefreshToken != refresh {
		t.Fatalf("expected request data with refresh token, got %+v", rd)
	}
}

func TestRegisterRejectsDuplicateEmailAndShortPassword(t *testing.T) {
	auth := newAuthEnv(t)
	registerAndLogin(t, auth)

	dup := &types.User{Email: "NEW@example.com", Password: "hunter2hunter2"}
	if err := auth.RegisterUser(context.Background(), dup); err == nil {
		t.Fatal("expected duplicate email rejection (case-insensitive)")
	}
	short := &types.User{Email: "short@example.com", Password: "tiny"}
	if err := auth.RegisterUser(context.Background(), short); err == nil {
		t.Fatal("expected short password rejection")
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	auth := newAuthEnv(t)
	registerAndLogin(t, auth)

	if _, _, err := auth.LoginUser(context.Background(), "new@example.com", "wrong-password"); err == nil {
		t.Fatal("expected login failure for bad password")
	}
	if _, _, err := auth.LoginUser(context.Background(), "nobody@example.com", "hunter2hunter2"); err == nil {
		t.Fatal("expected login failure for unknown email")
	}
}

func TestRefreshRotatesTokenPair(t *testing.T) {
	auth := newAuthEnv(t)
	access, refresh := registerAndLogin(t, auth)

	ctx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		TokenString:  access,
		RefreshToken: refresh,
	})
	newAccess, newRefresh, err := auth.RefreshUser(ctx)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if newRefresh == refresh {
		t.Fatal("expected a rotated refresh token")
	}
	if newAccess == "" || newAccess == access {
		t.Fatal("expected a distinct new access token")
	}

	// Rotating again immediately lands inside the same second as the first
	// pair; the minted tokens must still be unique.
	ctx2 := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		TokenString:  newAccess,
		RefreshToken: newRefresh,
	})
	thirdAccess, thirdRefresh, err := auth.RefreshUser(ctx2)
	if err != nil {
		t.Fatalf("back-to-back refresh: %v", err)
	}
	if thirdAccess == newAccess || thirdRefresh == newRefresh {
		t.Fatal("expected a fresh pair on back-to-back refresh")
	}

	// The old refresh token was consumed.
	if _, _, err := auth.RefreshUser(ctx); err == nil {
		t.Fatal("expected second refresh with the old token to fail")
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	auth := newAuthEnv(t)
	access, refresh := registerAndLogin(t, auth)

	ctx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		TokenString:  access,
		RefreshToken: refresh,
	})
	if err := auth.LogoutUser(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, _, err := auth.RefreshUser(ctx); err == nil {
		t.Fatal("expected refresh after logout to fail")
	}
}
