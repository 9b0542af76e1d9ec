package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kaiac/backend/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	return db
}

type fakeProvisioner struct {
	calls []string
	err   error
}

func (f *fakeProvisioner) ProvisionDomain(ctx context.Context, domain string) error {
	f.calls = append(f.calls, domain)
	return f.err
}

type fakeSQS struct {
	mu       sync.Mutex
	messages []types.Message
	deleted  []string
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := &sqs.ReceiveMessageOutput{Messages: f.messages}
	f.messages = nil
	return out, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deleted = append(f.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func (f *fakeSQS) deletedHandles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.deleted...)
}

func newTestPoller(client sqsAPI, db *gorm.DB, mail Provisioner) *Poller {
	return &Poller{
		client:   client,
		queueURL: "https://sqs.eu-west-3.amazonaws.com/000000000000/provisioning",
		db:       db,
		mail:     mail,
		stop:     make(chan struct{}),
	}
}

func TestHandleMessageProvisionsDomain(t *testing.T) {
	db := newTestDB(t)
	mail := &fakeProvisioner{}
	poller := newTestPoller(&fakeSQS{}, db, mail)

	err := poller.handleMessage(context.Background(), `{"domain":"example.com","userId":7}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"example.com"}, mail.calls)

	var mailDomain models.MailDomain
	require.NoError(t, db.Where("domain = ?", "example.com").First(&mailDomain).Error)
	assert.Equal(t, models.MailDomainActive, mailDomain.Status)
	assert.Equal(t, uint(7), mailDomain.UserID)
	assert.NotNil(t, mailDomain.ProvisionedAt)
	assert.Empty(t, mailDomain.LastError)
}

func TestHandleMessageRecordsFailure(t *testing.T) {
	db := newTestDB(t)
	mail := &fakeProvisioner{err: errors.New("mail API unavailable")}
	poller := newTestPoller(&fakeSQS{}, db, mail)

	err := poller.handleMessage(context.Background(), `{"domain":"example.com","userId":7}`)
	require.Error(t, err)

	var mailDomain models.MailDomain
	require.NoError(t, db.Where("domain = ?", "example.com").First(&mailDomain).Error)
	assert.Equal(t, models.MailDomainFailed, mailDomain.Status)
	assert.Contains(t, mailDomain.LastError, "mail API unavailable")
}

func TestHandleMessageRetriesFailedDomain(t *testing.T) {
	db := newTestDB(t)
	mail := &fakeProvisioner{err: errors.New("mail API unavailable")}
	poller := newTestPoller(&fakeSQS{}, db, mail)

	require.Error(t, poller.handleMessage(context.Background(), `{"domain":"example.com","userId":7}`))

	// The redelivered message succeeds once the mail API recovers
	mail.err = nil
	require.NoError(t, poller.handleMessage(context.Background(), `{"domain":"example.com","userId":7}`))

	var mailDomain models.MailDomain
	require.NoError(t, db.Where("domain = ?", "example.com").First(&mailDomain).Error)
	assert.Equal(t, models.MailDomainActive, mailDomain.Status)
	assert.Empty(t, mailDomain.LastError)
}

func TestHandleMessageSkipsActiveDomain(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()
	require.NoError(t, db.Create(&models.MailDomain{
		UserID:        7,
		Domain:        "example.com",
		Status:        models.MailDomainActive,
		ProvisionedAt: &now,
	}).Error)

	mail := &fakeProvisioner{}
	poller := newTestPoller(&fakeSQS{}, db, mail)

	// Redelivery after a successful run: no second provisioning call
	err := poller.handleMessage(context.Background(), `{"domain":"example.com","userId":7}`)
	require.NoError(t, err)
	assert.Empty(t, mail.calls)
}

func TestHandleMessageDropsMalformedBody(t *testing.T) {
	db := newTestDB(t)
	mail := &fakeProvisioner{}
	poller := newTestPoller(&fakeSQS{}, db, mail)

	// A message that can never parse must not stay on the queue forever
	err := poller.handleMessage(context.Background(), "not json")
	require.NoError(t, err)
	assert.Empty(t, mail.calls)
}

func TestPollerDeletesOnSuccessOnly(t *testing.T) {
	db := newTestDB(t)

	client := &fakeSQS{messages: []types.Message{
		{
			MessageId:     aws.String("m1"),
			ReceiptHandle: aws.String("rh-1"),
			Body:          aws.String(`{"domain":"ok.example.com","userId":1}`),
		},
		{
			MessageId:     aws.String("m2"),
			ReceiptHandle: aws.String("rh-2"),
			Body:          aws.String(`{"domain":"bad.example.net","userId":2}`),
		},
	}}

	// First domain succeeds, second fails
	poller := newTestPoller(client, db, &selectiveProvisioner{failDomain: "bad.example.net"})

	done := make(chan struct{})
	go func() {
		poller.Start()
		close(done)
	}()

	require.Eventually(t, func() bool {
		return len(client.deletedHandles()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	poller.Stop()
	<-done

	// Only the successful message was deleted; the failed one stays for redelivery
	assert.Equal(t, []string{"rh-1"}, client.deletedHandles())
}

type selectiveProvisioner struct {
	failDomain string
}

func (s *selectiveProvisioner) ProvisionDomain(ctx context.Context, domain string) error {
	if domain == s.failDomain {
		return errors.New("provisioning rejected")
	}
	return nil
}
