package sns

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/smithy-go"
	"github.com/credential-relay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(*in.PhoneNumber, *in.Message)
	if out, _ := args.Get(0).(*sns.PublishOutput); out != nil {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestSend_Publishes(t *testing.T) {
	p := &mockPublisher{}
	p.On("Publish", "+15551234567", "code 123456").Return(&sns.PublishOutput{}, nil)

	err := (&Sender{client: p}).Send(context.Background(), domain.Message{To: "+15551234567", Body: "code 123456"})
	require.NoError(t, err)
	p.AssertExpectations(t)
}

func TestSend_ThrottlingIsTransient(t *testing.T) {
	p := &mockPublisher{}
	p.On("Publish", mock.Anything, mock.Anything).Return(nil, &smithy.GenericAPIError{Code: "Throttling", Fault: smithy.FaultClient})

	err := (&Sender{client: p}).Send(context.Background(), domain.Message{To: "+15551234567", Body: "x"})
	assert.ErrorIs(t, err, domain.ErrTransient)
}

func TestSend_ServerFaultIsTransient(t *testing.T) {
	p := &mockPublisher{}
	p.On("Publish", mock.Anything, mock.Anything).Return(nil, &smithy.GenericAPIError{Code: "Whatever", Fault: smithy.FaultServer})

	err := (&Sender{client: p}).Send(context.Background(), domain.Message{To: "+15551234567", Body: "x"})
	assert.ErrorIs(t, err, domain.ErrTransient)
}

func TestSend_AuthorizationErrorIsPermanent(t *testing.T) {
	p := &mockPublisher{}
	p.On("Publish", mock.Anything, mock.Anything).Return(nil, &smithy.GenericAPIError{Code: "AuthorizationError", Fault: smithy.FaultClient})

	err := (&Sender{client: p}).Send(context.Background(), domain.Message{To: "+15551234567", Body: "x"})
	assert.ErrorIs(t, err, domain.ErrPermanent)
}

func TestSend_UnknownErrorIsPermanent(t *testing.T) {
	p := &mockPublisher{}
	p.On("Publish", mock.Anything, mock.Anything).Return(nil, errors.New("invalid parameter"))

	err := (&Sender{client: p}).Send(context.Background(), domain.Message{To: "+15551234567", Body: "x"})
	assert.ErrorIs(t, err, domain.ErrPermanent)
}
