package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/certificate"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// PushAlert is a user-visible push notification
type PushAlert struct {
	Title string
	Body  string
	Data  map[string]interface{}
}

// Pusher delivers a push notification to one device
type Pusher interface {
	Push(ctx context.Context, deviceToken string, alert PushAlert) error
}

// APNsOptions selects token (.p8) or certificate (.p12) authentication
type APNsOptions struct {
	Topic        string
	Production   bool
	KeyFile      string
	KeyID        string
	TeamID       string
	CertFile     string
	CertPassword string
}

// APNsPusher sends alerts through Apple Push Notification service
type APNsPusher struct {
	client *apns2.Client
	topic  string
}

// NewAPNsPusher creates a pusher from opts. Token auth wins when KeyFile is set.
func NewAPNsPusher(opts APNsOptions) (*APNsPusher, error) {
	if opts.Topic == "" {
		return nil, errors.New("apns topic is required")
	}

	var client *apns2.Client
	switch {
	case opts.KeyFile != "":
		authKey, err := token.AuthKeyFromFile(opts.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load apns auth key: %w", err)
		}
		client = apns2.NewTokenClient(&token.Token{
			AuthKey: authKey,
			KeyID:   opts.KeyID,
			TeamID:  opts.TeamID,
		})
	case opts.CertFile != "":
		cert, err := certificate.FromP12File(opts.CertFile, opts.CertPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to load apns certificate: %w", err)
		}
		client = apns2.NewClient(cert)
	default:
		return nil, errors.New("apns key_file or cert_file is required")
	}

	if opts.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}
	return &APNsPusher{client: client, topic: opts.Topic}, nil
}

// Push sends alert to deviceToken
func (p *APNsPusher) Push(ctx context.Context, deviceToken string, alert PushAlert) error {
	pl := payload.NewPayload().AlertTitle(alert.Title).AlertBody(alert.Body).Sound("default")
	for k, v := range alert.Data {
		pl = pl.Custom(k, v)
	}

	res, err := p.client.PushWithContext(ctx, &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       p.topic,
		Payload:     pl,
	})
	if err != nil {
		return fmt.Errorf("failed to push notification: %w", err)
	}
	if !res.Sent() {
		return fmt.Errorf("apns rejected notification: %d %s", res.StatusCode, res.Reason)
	}
	return nil
}
