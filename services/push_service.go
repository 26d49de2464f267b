package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/OKpoorav/DietKaro-sub002/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"
)

// staffRoles receive compliance alerts.
var staffRoles = []models.Role{models.RoleOwner, models.RoleAdmin, models.RoleDietitian}

type DeviceStore interface {
	// UpsertDevice inserts dev or refreshes the row with the same user and
	// token hash.
	UpsertDevice(ctx context.Context, dev *models.UserDevice) (*models.UserDevice, error)
	// ListOrgDevices returns the enabled devices of users of orgID that hold
	// one of roles.
	ListOrgDevices(ctx context.Context, orgID uint, roles []models.Role) ([]models.UserDevice, error)
	// SetDevicesEnabled toggles every device of a user and returns how many
	// rows changed.
	SetDevicesEnabled(ctx context.Context, orgID, userID uint, enabled bool) (int64, error)
}

// SNSAPI is the part of the SNS client push needs.
type SNSAPI interface {
	CreatePlatformEndpoint(ctx context.Context, in *awssns.CreatePlatformEndpointInput, opts ...func(*awssns.Options)) (*awssns.CreatePlatformEndpointOutput, error)
	Publish(ctx context.Context, in *awssns.PublishInput, opts ...func(*awssns.Options)) (*awssns.PublishOutput, error)
}

type PushService struct {
	devices        DeviceStore
	sns            SNSAPI
	fcmPlatformArn string
	log            *zap.Logger
}

func NewPushService(devices DeviceStore, sns SNSAPI, fcmPlatformArn string, log *zap.Logger) *PushService {
	if log == nil {
		log = zap.NewNop()
	}
	return &PushService{devices: devices, sns: sns, fcmPlatformArn: fcmPlatformArn, log: log}
}

type RegisterDeviceReq struct {
	Platform string `json:"platform" binding:"required"` // "android" | "ios"
	Token    string `json:"token" binding:"required"`
}

func tokenHash(tok string) string {
	h := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(h[:])
}

func (p *PushService) platformArn(platform string) (string, error) {
	switch strings.ToLower(platform) {
	case "android", "ios":
		if p.fcmPlatformArn == "" {
			return "", Dependency("push", errors.New("SNS_FCM_ARN not set"))
		}
		return p.fcmPlatformArn, nil
	default:
		return "", InvalidArgument("platform", "unknown platform %q", platform)
	}
}

// RegisterDevice creates an SNS endpoint for a device token of a team member.
func (p *PushService) RegisterDevice(ctx context.Context, orgID, userID uint, platform, token string) (*models.UserDevice, error) {
	appArn, err := p.platformArn(platform)
	if err != nil {
		return nil, err
	}
	out, err := p.sns.CreatePlatformEndpoint(ctx, &awssns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(appArn),
		Token:                  aws.String(token),
	})
	if err != nil {
		return nil, Dependency("create platform endpoint", err)
	}
	return p.devices.UpsertDevice(ctx, &models.UserDevice{
		OrgID:       orgID,
		UserID:      userID,
		Platform:    strings.ToLower(platform),
		TokenHash:   tokenHash(token),
		EndpointARN: aws.ToString(out.EndpointArn),
		Enabled:     true,
		UpdatedAt:   time.Now(),
	})
}

// SetNotifications mutes or unmutes every device of a user.
func (p *PushService) SetNotifications(ctx context.Context, orgID, userID uint, enabled bool) (int64, error) {
	return p.devices.SetDevicesEnabled(ctx, orgID, userID, enabled)
}

// PushToOrg notifies every staff device of an organization. Delivery is
// best effort; failures are logged.
func (p *PushService) PushToOrg(ctx context.Context, orgID uint, title, body string, data map[string]string) {
	endpoints, err := p.devices.ListOrgDevices(ctx, orgID, staffRoles)
	if err != nil {
		p.log.Warn("unable to list push devices", zap.Uint("org_id", orgID), zap.Error(err))
		return
	}
	if len(endpoints) == 0 {
		return
	}

	gcm, _ := json.Marshal(map[string]any{
		"notification": map[string]string{
			"title": title,
			"body":  body,
		},
		"data": data,
	})
	raw, _ := json.Marshal(map[string]string{
		"default": body,
		"GCM":     string(gcm),
	})
	for _, d := range endpoints {
		_, err := p.sns.Publish(ctx, &awssns.PublishInput{
			MessageStructure: aws.String("json"),
			Message:          aws.String(string(raw)),
			TargetArn:        aws.String(d.EndpointARN),
		})
		if err != nil {
			p.log.Warn("push publish failed", zap.Uint("device_id", d.ID), zap.Error(err))
		}
	}
}
