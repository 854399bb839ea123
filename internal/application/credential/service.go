package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/credential-relay/internal/application/notification"
	"github.com/credential-relay/internal/domain"
	"github.com/credential-relay/internal/infrastructure/memory"
	"github.com/credential-relay/internal/infrastructure/templates"
	"github.com/credential-relay/internal/observability/metrics"
	"github.com/credential-relay/internal/pkg/id"
	"github.com/credential-relay/internal/pkg/validate"
)

// auditRetention is how long delivery audit rows are kept before DynamoDB TTL removes them.
const auditRetention = 30 * 24 * time.Hour

var hospitalIDRe = regexp.MustCompile(`^HOS[0-9]{3}$`)

// roleFields lists the optional detail fields each account template shows,
// with the value used when the caller omits one.
var roleFields = map[domain.SubjectType]map[string]string{
	domain.SubjectDoctor:   {"specialization": "", "license": "", "phone": ""},
	domain.SubjectLab:      {"labName": "Main Laboratory", "phone": ""},
	domain.SubjectHospital: {"hospitalName": "", "street": "", "city": "", "state": "", "zipCode": "", "phone": "", "licenseNumber": ""},
}

var roleTitles = map[domain.SubjectType]string{
	domain.SubjectDoctor:   "Doctor",
	domain.SubjectLab:      "Lab Admin",
	domain.SubjectHospital: "Hospital Admin",
}

// idPlaceholders names the template field that receives the subject id.
var idPlaceholders = map[domain.SubjectType]string{
	domain.SubjectDoctor:   "doctorId",
	domain.SubjectLab:      "labId",
	domain.SubjectHospital: "hospitalId",
}

type Service interface {
	IssueOTP(ctx context.Context, req domain.OTPRequest) (*domain.OTPResult, error)
	IssueAccountCredentials(ctx context.Context, req domain.AccountRequest) (*domain.AccountResult, error)
	ValidateCredentials(ctx context.Context, req domain.ValidateRequest) (*domain.ValidateResult, error)
}

type credentialStore interface {
	Reserve(subjectID string) bool
	Release(subjectID string)
	Store(subjectID, secret string, subjectType domain.SubjectType) error
	Validate(subjectID, secret string, subjectType domain.SubjectType) error
	RemainingTTL(subjectID string) time.Duration
	Len() int
}

type cooldown interface {
	Acquire(recipient string) (*memory.Lease, bool)
}

type renderer interface {
	Render(ctx context.Context, key string, values map[string]string) (templates.Rendered, error)
}

type deliverer interface {
	Deliver(ctx context.Context, msg domain.Message) error
}

type deliveryLog interface {
	Put(ctx context.Context, d *domain.Delivery) error
}

type service struct {
	store      credentialStore
	cooldown   cooldown
	renderer   renderer
	deliverer  deliverer
	audit      deliveryLog
	brand      string
	smsEnabled bool
	now        func() time.Time
}

type ServiceDeps struct {
	Store      credentialStore
	Cooldown   cooldown
	Renderer   renderer
	Deliverer  deliverer
	Audit      deliveryLog // optional
	Brand      string
	SMSEnabled bool
	Now        func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		store:      deps.Store,
		cooldown:   deps.Cooldown,
		renderer:   deps.Renderer,
		deliverer:  deps.Deliverer,
		audit:      deps.Audit,
		brand:      deps.Brand,
		smsEnabled: deps.SMSEnabled,
		now:        now,
	}
}

func (s *service) IssueOTP(ctx context.Context, req domain.OTPRequest) (res *domain.OTPResult, err error) {
	const op = "credential.issue_otp"
	defer recoverInternal(op, &err)

	if err := validate.Struct(req); err != nil {
		return nil, domain.E(domain.KindValidationInput, op, err.Error(), nil)
	}
	role, _ := domain.ParseSubjectType(req.Role)
	sms := notification.IsPhone(req.To)
	if sms && !s.smsEnabled {
		return nil, domain.E(domain.KindValidationInput, op, "sms delivery is not enabled", nil)
	}

	lease, ok := s.cooldown.Acquire(req.To)
	if !ok {
		slog.Info("otp suppressed, sent recently", "recipient", req.To)
		s.record(ctx, domain.PurposeOTP, req.To, role, "", domain.DeliverySuppressed, nil)
		return &domain.OTPResult{Suppressed: true}, nil
	}
	sent := false
	defer func() { lease.Done(sent) }()

	code := req.OTP
	if code == "" {
		if code, err = NewOTP(); err != nil {
			return nil, domain.E(domain.KindInternal, op, "mint otp", err)
		}
	}
	if len(code) < OTPLength {
		code = strings.Repeat("0", OTPLength-len(code)) + code
	}

	values := map[string]string{
		"brand":     s.brand,
		"roleTitle": roleTitles[role],
		"otp":       code,
	}
	for i, d := range code {
		values[fmt.Sprintf("d%d", i+1)] = string(d)
	}
	key := "otp"
	if sms {
		key = "otp_sms"
	}
	body, err := s.renderer.Render(ctx, key, values)
	if err != nil {
		s.record(ctx, domain.PurposeOTP, req.To, role, "", domain.DeliveryFailed, err)
		return nil, err
	}

	msg := domain.Message{
		To:      req.To,
		Subject: fmt.Sprintf("%s - Your OTP Verification Code", s.brand),
		Body:    body.Body,
		HTML:    body.HTML,
	}
	if err := s.deliverer.Deliver(ctx, msg); err != nil {
		s.record(ctx, domain.PurposeOTP, req.To, role, "", domain.DeliveryFailed, err)
		return nil, err
	}
	sent = true
	s.record(ctx, domain.PurposeOTP, req.To, role, "", domain.DeliverySent, nil)
	slog.Info("otp delivered", "recipient", req.To, "role", role)
	return &domain.OTPResult{OTP: code}, nil
}

func (s *service) IssueAccountCredentials(ctx context.Context, req domain.AccountRequest) (res *domain.AccountResult, err error) {
	const op = "credential.issue_account"
	defer recoverInternal(op, &err)

	if err := validate.Struct(req); err != nil {
		return nil, domain.E(domain.KindValidationInput, op, err.Error(), nil)
	}
	t, _ := domain.ParseSubjectType(req.AccountType)
	fullName := strings.TrimSpace(req.Details["fullName"])
	if fullName == "" {
		return nil, domain.E(domain.KindValidationInput, op, "details.fullName is required", nil)
	}
	hospitalID := strings.TrimSpace(req.Details["hospitalId"])
	if t == domain.SubjectHospital && !hospitalIDRe.MatchString(hospitalID) {
		return nil, domain.E(domain.KindValidationInput, op, "details.hospitalId must look like HOS001", nil)
	}

	lease, ok := s.cooldown.Acquire(req.To)
	if !ok {
		slog.Info("credentials suppressed, sent recently", "recipient", req.To)
		s.record(ctx, domain.PurposeCredentials, req.To, t, "", domain.DeliverySuppressed, nil)
		return &domain.AccountResult{Suppressed: true}, nil
	}
	sent := false
	defer func() { lease.Done(sent) }()

	var subjectID string
	if t == domain.SubjectHospital {
		if !s.store.Reserve(hospitalID) {
			return nil, domain.E(domain.KindConflict, op, hospitalID+" already has a live credential", nil)
		}
		subjectID = hospitalID
	} else if subjectID, err = NewIdentifier(s.store, t); err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			s.store.Release(subjectID)
		}
	}()

	password, err := NewSecret()
	if err != nil {
		return nil, domain.E(domain.KindInternal, op, "mint secret", err)
	}

	values := make(map[string]string, len(req.Details)+8)
	for k, def := range roleFields[t] {
		values[k] = def
	}
	for k, v := range req.Details {
		values[k] = v
	}
	values["brand"] = s.brand
	values["fullName"] = fullName
	values["email"] = req.To
	values["password"] = password
	values[idPlaceholders[t]] = subjectID

	body, err := s.renderer.Render(ctx, string(t)+"_credentials", values)
	if err != nil {
		s.record(ctx, domain.PurposeCredentials, req.To, t, subjectID, domain.DeliveryFailed, err)
		return nil, err
	}
	msg := domain.Message{
		To:      req.To,
		Subject: fmt.Sprintf("%s - Your %s Account Credentials", s.brand, roleTitles[t]),
		Body:    body.Body,
		HTML:    body.HTML,
	}
	if err := s.deliverer.Deliver(ctx, msg); err != nil {
		s.record(ctx, domain.PurposeCredentials, req.To, t, subjectID, domain.DeliveryFailed, err)
		return nil, err
	}
	sent = true

	if err := s.store.Store(subjectID, password, t); err != nil {
		return nil, internal(op, err)
	}
	committed = true
	metrics.LiveCredentials.Set(float64(s.store.Len()))
	s.record(ctx, domain.PurposeCredentials, req.To, t, subjectID, domain.DeliverySent, nil)
	slog.Info("credentials issued", "recipient", req.To, "subject_id", subjectID, "type", t)

	return &domain.AccountResult{SubjectID: subjectID, Secret: password, SubjectType: t}, nil
}

func (s *service) ValidateCredentials(ctx context.Context, req domain.ValidateRequest) (res *domain.ValidateResult, err error) {
	const op = "credential.validate"
	defer recoverInternal(op, &err)

	if err := validate.Struct(req); err != nil {
		return nil, domain.E(domain.KindValidationInput, op, err.Error(), nil)
	}
	t, _ := domain.ParseSubjectType(req.UserType)

	if err := s.store.Validate(req.UserID, req.Password, t); err != nil {
		kind := domain.KindOf(err)
		metrics.ValidationsTotal.WithLabelValues(kind.String()).Inc()
		slog.Warn("credential validation failed", "subject_id", req.UserID, "type", t, "reason", kind.String())
		return nil, err
	}
	remaining := s.store.RemainingTTL(req.UserID)
	if remaining <= 0 {
		// expired between the two calls
		metrics.ValidationsTotal.WithLabelValues(domain.KindNotFound.String()).Inc()
		return nil, domain.E(domain.KindNotFound, op, "credential expired", nil)
	}
	metrics.ValidationsTotal.WithLabelValues("valid").Inc()
	return &domain.ValidateResult{SubjectID: req.UserID, SubjectType: t, Remaining: remaining}, nil
}

// record writes an audit row and bumps the dispatch counter. Audit failures are
// logged and never fail the request.
func (s *service) record(ctx context.Context, purpose, recipient string, role domain.SubjectType, subjectID, status string, cause error) {
	metrics.DispatchesTotal.WithLabelValues(purpose, status).Inc()
	if s.audit == nil {
		return
	}
	now := s.now().UTC()
	d := &domain.Delivery{
		DeliveryID: id.New(),
		Recipient:  recipient,
		Purpose:    purpose,
		Role:       string(role),
		Status:     status,
		CreatedAt:  now,
		ExpiresAt:  now.Add(auditRetention).Unix(),
	}
	if subjectID != "" {
		d.SubjectID = &subjectID
	}
	if cause != nil {
		d.Reason = domain.KindOf(cause).String()
	}
	if err := s.audit.Put(ctx, d); err != nil {
		slog.Error("write delivery audit", "delivery_id", d.DeliveryID, "err", err)
	}
}

func internal(op string, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	return domain.E(domain.KindInternal, op, "unexpected failure", err)
}

func recoverInternal(op string, err *error) {
	if r := recover(); r != nil {
		slog.Error("recovered panic", "op", op, "panic", r)
		*err = domain.E(domain.KindInternal, op, "unexpected failure", nil)
	}
}
