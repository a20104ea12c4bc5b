package contact

import (
	"context"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/akia2466/PMNTS-Lovable/core"
)

var ErrNotFound = core.NewNotFoundError("contact submission")

type Status string

const (
	StatusNew      Status = "new"
	StatusRead     Status = "read"
	StatusResolved Status = "resolved"
)

type Submission struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type NewSubmission struct {
	Name    string `json:"name" validate:"required,notblank,max=120"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,notblank,max=200"`
	Message string `json:"message" validate:"required,notblank,max=5000"`
}

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Subject = core.CleanString(ns.Subject)
	ns.Message = core.CleanString(ns.Message)
	return validate.Struct(ns)
}

type UpdateStatus struct {
	Status Status `json:"status" validate:"required,oneof=new read resolved"`
}

func (us UpdateStatus) Validate(validate *validator.Validate) error { return validate.Struct(us) }

type QueryFilter struct {
	Status Status `query:"status"`
}

type (
	Repository interface {
		CreateSubmission(ctx context.Context, s Submission) (Submission, error)
		GetSubmissionByID(ctx context.Context, id string) (Submission, error)
		// QuerySubmissions returns the matching submissions, most recent first.
		QuerySubmissions(ctx context.Context, filter QueryFilter) ([]Submission, error)
		UpdateSubmission(ctx context.Context, s Submission) (Submission, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		staff   mail.Address
	}
)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, staff: conf.StaffEmail}
}

// Submit stores a message of the public contact form, notifies the staff and acknowledges the sender.
// ns must have been validated.
func (svc *Service) Submit(ctx context.Context, ns NewSubmission) (Submission, error) {
	s, err := svc.repo.CreateSubmission(ctx, Submission{
		Name:      ns.Name,
		Email:     ns.Email,
		Subject:   ns.Subject,
		Message:   ns.Message,
		Status:    StatusNew,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return Submission{}, err
	}

	data := map[string]string{"Name": s.Name, "Email": s.Email, "Subject": s.Subject, "Message": s.Message}
	sender := mail.Address{Name: s.Name, Address: s.Email}
	messages := []*core.EmailMessage{{
		To:           []mail.Address{sender},
		Subject:      "We received your message",
		TemplateName: "contact_ack",
		TemplateData: data,
	}}
	if svc.staff.Address != "" {
		messages = append(messages, &core.EmailMessage{
			To:           []mail.Address{svc.staff},
			ReplyTo:      &sender,
			Subject:      "Contact form: " + s.Subject,
			TemplateName: "contact_notify",
			TemplateData: data,
		})
	}
	svc.mailSvc.SendMessages(messages...)
	return s, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Submission, error) {
	return svc.repo.QuerySubmissions(ctx, filter)
}

// SetStatus moves a submission through new, read and resolved. us must have been validated.
func (svc *Service) SetStatus(ctx context.Context, id string, us UpdateStatus) (Submission, error) {
	s, err := svc.repo.GetSubmissionByID(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	s.Status = us.Status
	return svc.repo.UpdateSubmission(ctx, s)
}
