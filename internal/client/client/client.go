package client

import (
	"context"

	"github.com/aligned-app/aligned/internal/client/models"
)

// Client is the contract of the Aligned backend.
type Client interface {
	Login(ctx context.Context, email, password string) (*models.LoginResult, error)
	VerifyEmail(ctx context.Context, email string) (bool, string, error)
	CreateAccount(ctx context.Context, reg models.Registration, images [][]byte) error
	GetProfile(ctx context.Context, uid string) (models.RawRecord, error)
	UpdateProfile(ctx context.Context, uid string, images []string) (models.RawRecord, error)
	GetQueue(ctx context.Context, q models.Queue, uid string) ([]models.RawRecord, error)
	Act(ctx context.Context, actor string, kind models.ActionKind, subject string) (*models.ActionResult, error)
	GetNotifications(ctx context.Context, uid string) ([]models.RawRecord, error)
	ChatPreference(ctx context.Context, uid, input string) (*models.DestinyReply, error)
	ChatToken(ctx context.Context, uid string) (string, error)
	Conversation(ctx context.Context, uid1, uid2 string) (string, error)
	Ping(ctx context.Context) error
	SetToken(token string)
	Token() string
}
