package queue

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"gorm.io/gorm"

	"github.com/kaiac/backend/internal/models"
)

// Provisioner creates a domain on the mail platform; must be idempotent on
// the domain name
type Provisioner interface {
	ProvisionDomain(ctx context.Context, domain string) error
}

// sqsAPI is the slice of the SQS client the poller uses
type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// ProvisionMessage is the message shape on the provisioning queue
type ProvisionMessage struct {
	Domain string `json:"domain"`
	UserID uint   `json:"userId"`
}

// Poller is a single-threaded long-poll loop over the provisioning queue.
// Messages are processed sequentially and deleted on success; a failed message
// is left on the queue for redelivery (at-least-once delivery, so the mail API
// call is idempotent on domain name). There is no dead-letter handling.
type Poller struct {
	client   sqsAPI
	queueURL string
	db       *gorm.DB
	mail     Provisioner
	stop     chan struct{}
}

func NewPoller(client *sqs.Client, queueURL string, db *gorm.DB, mail Provisioner) *Poller {
	return &Poller{
		client:   client,
		queueURL: queueURL,
		db:       db,
		mail:     mail,
		stop:     make(chan struct{}),
	}
}

// Start blocks polling the queue until Stop is called
func (p *Poller) Start() {
	log.Println("Provisioner: polling started")
	ctx := context.Background()

	for {
		select {
		case <-p.stop:
			log.Println("Provisioner: polling stopped")
			return
		default:
			out, err := p.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
				QueueUrl:            aws.String(p.queueURL),
				MaxNumberOfMessages: 10,
				WaitTimeSeconds:     20,
				VisibilityTimeout:   60,
			})
			if err != nil {
				log.Printf("Provisioner: receive failed: %v", err)
				time.Sleep(time.Second)
				continue
			}

			for _, message := range out.Messages {
				if err := p.handleMessage(ctx, aws.ToString(message.Body)); err != nil {
					// Leave the message for redelivery
					log.Printf("Provisioner: message %s failed, leaving for redelivery: %v",
						aws.ToString(message.MessageId), err)
					continue
				}

				_, err := p.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
					QueueUrl:      aws.String(p.queueURL),
					ReceiptHandle: message.ReceiptHandle,
				})
				if err != nil {
					log.Printf("Provisioner: delete failed for %s: %v",
						aws.ToString(message.MessageId), err)
				}
			}
		}
	}
}

// Stop terminates the polling loop
func (p *Poller) Stop() {
	close(p.stop)
}

// handleMessage provisions one mail domain and tracks its state in the
// mail_domains table
func (p *Poller) handleMessage(ctx context.Context, body string) error {
	var msg ProvisionMessage
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		// A malformed message can never succeed; log and drop it
		log.Printf("Provisioner: dropping malformed message: %v", err)
		return nil
	}

	var mailDomain models.MailDomain
	err := p.db.Where("domain = ?", msg.Domain).
		Attrs(models.MailDomain{UserID: msg.UserID, Domain: msg.Domain, Status: models.MailDomainPending}).
		FirstOrCreate(&mailDomain).Error
	if err != nil {
		return err
	}

	if mailDomain.Status == models.MailDomainActive {
		// Redelivered after a successful run
		return nil
	}

	p.db.Model(&mailDomain).Update("status", models.MailDomainProvisioning)

	if err := p.mail.ProvisionDomain(ctx, msg.Domain); err != nil {
		p.db.Model(&mailDomain).Updates(map[string]interface{}{
			"status":     models.MailDomainFailed,
			"last_error": err.Error(),
		})
		return err
	}

	now := time.Now().UTC()
	return p.db.Model(&mailDomain).Updates(map[string]interface{}{
		"status":         models.MailDomainActive,
		"last_error":     "",
		"provisioned_at": now,
	}).Error
}
