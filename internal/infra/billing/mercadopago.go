package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preapproval"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/payment"
)

const ProviderMercadoPago = "mercadopago"

// MercadoPago charges through PIX payments and bills plans via preapprovals.
type MercadoPago struct {
	payments     payment.Client
	preapprovals preapproval.Client
	notifyURL    string
	backURL      string
}

type MercadoPagoConfig struct {
	AccessToken string
	NotifyURL   string
	BackURL     string
}

func NewMercadoPago(cfg MercadoPagoConfig) (*MercadoPago, error) {
	if cfg.AccessToken == "" {
		return nil, errors.New("mercadopago access token is required")
	}

	mpCfg, err := config.New(cfg.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("mercadopago config: %w", err)
	}

	return &MercadoPago{
		payments:     payment.NewClient(mpCfg),
		preapprovals: preapproval.NewClient(mpCfg),
		notifyURL:    cfg.NotifyURL,
		backURL:      cfg.BackURL,
	}, nil
}

func (m *MercadoPago) Provider() string { return ProviderMercadoPago }

// --------------------------------------------------
// One-time charges
// --------------------------------------------------

func (m *MercadoPago) CreateBilling(ctx context.Context, req domain.BillingRequest) (*domain.Billing, error) {
	meta := make(map[string]any, len(req.Metadata))
	for k, v := range req.Metadata {
		meta[k] = v
	}

	request := payment.Request{
		TransactionAmount: req.AmountCents.Float64(),
		PaymentMethodID:   "pix",
		Description:       req.Description,
		ExternalReference: req.IntentID.String(),
		NotificationURL:   m.notifyURL,
		Metadata:          meta,
		DateOfExpiration:  req.ExpiresAt,
		Payer: &payment.PayerRequest{
			Email:     req.Customer.Email,
			FirstName: firstName(req.Customer.Name),
		},
	}

	resp, err := m.payments.Create(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("mercadopago create payment: %w", err)
	}
	return toBilling(resp), nil
}

func (m *MercadoPago) GetBilling(ctx context.Context, providerRef string) (*domain.Billing, error) {
	id, err := parsePaymentID(providerRef)
	if err != nil {
		return nil, err
	}
	resp, err := m.payments.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("mercadopago get payment: %w", err)
	}
	return toBilling(resp), nil
}

func (m *MercadoPago) CancelBilling(ctx context.Context, providerRef string) error {
	id, err := parsePaymentID(providerRef)
	if err != nil {
		return err
	}
	if _, err := m.payments.Cancel(ctx, id); err != nil {
		return fmt.Errorf("mercadopago cancel payment: %w", err)
	}
	return nil
}

// --------------------------------------------------
// Subscriptions
// --------------------------------------------------

func (m *MercadoPago) CreateSubscription(ctx context.Context, req domain.SubscriptionRequest) (string, error) {
	resp, err := m.preapprovals.Create(ctx, preapproval.Request{
		AutoRecurring: &preapproval.AutoRecurringRequest{
			CurrencyID:        "BRL",
			TransactionAmount: req.AmountCents.Float64(),
			Frequency:         1,
			FrequencyType:     "months",
		},
		PayerEmail:        req.PayerEmail,
		Reason:            req.PlanName,
		ExternalReference: req.SubscriptionID.String(),
		BackURL:           m.backURL,
	})
	if err != nil {
		return "", fmt.Errorf("mercadopago create preapproval: %w", err)
	}
	return resp.ID, nil
}

func (m *MercadoPago) CancelSubscription(ctx context.Context, providerRef string) error {
	return m.setPreapprovalStatus(ctx, providerRef, "cancelled")
}

func (m *MercadoPago) PauseSubscription(ctx context.Context, providerRef string) error {
	return m.setPreapprovalStatus(ctx, providerRef, "paused")
}

func (m *MercadoPago) ResumeSubscription(ctx context.Context, providerRef string) error {
	return m.setPreapprovalStatus(ctx, providerRef, "authorized")
}

func (m *MercadoPago) setPreapprovalStatus(ctx context.Context, providerRef, status string) error {
	if _, err := m.preapprovals.Update(ctx, providerRef, preapproval.UpdateRequest{Status: status}); err != nil {
		return fmt.Errorf("mercadopago preapproval %s: %w", status, err)
	}
	return nil
}

// --------------------------------------------------
// helpers
// --------------------------------------------------

func toBilling(resp *payment.Response) *domain.Billing {
	td := resp.PointOfInteraction.TransactionData
	return &domain.Billing{
		ProviderRef: strconv.Itoa(resp.ID),
		Status:      resp.Status,
		CheckoutURL: td.TicketURL,
		QRCode:      td.QRCodeBase64,
		PixCode:     td.QRCode,
	}
}

func parsePaymentID(ref string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(ref))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid mercadopago payment id %q", ref)
	}
	return id, nil
}

func firstName(full string) string {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

var _ domain.BillingGateway = (*MercadoPago)(nil)
