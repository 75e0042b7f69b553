// Package settings holds the operator-level preferences: which publisher the
// operator works for and the promoter profile that signs emails.
package settings

import (
	"context"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"uniscan/domain/catalog"
	"uniscan/domain/core"
	"uniscan/domain/promoter"
	"uniscan/internal"
	"uniscan/internal/errors"
	"uniscan/ports"
)

// Static is a fixed publisher
type Static string

func (s Static) Publisher() string { return string(s) }

// PublisherSettings is the process-wide publisher selection. Readers get a
// copy; Set is the only mutator.
type PublisherSettings struct {
	mu        sync.RWMutex
	publisher string
	onChange  []func(string)
}

var _ ports.PublisherSource = (*PublisherSettings)(nil)

// NewPublisherSettings starts from initial, or the default publisher when
// initial is not a known publisher.
func NewPublisherSettings(initial string) *PublisherSettings {
	p, ok := catalog.CanonicalPublisher(initial)
	if !ok {
		p = catalog.DefaultPublisher
	}
	return &PublisherSettings{publisher: p}
}

// Publisher returns the selected publisher
func (s *PublisherSettings) Publisher() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.publisher
}

// Set selects a publisher from the known list
func (s *PublisherSettings) Set(name string) (string, error) {
	p, ok := catalog.CanonicalPublisher(name)
	if !ok {
		return "", errors.Invalid(errors.Violation{
			Field:   "publisher",
			Message: "Editore non riconosciuto: " + strings.TrimSpace(name),
		})
	}
	s.mu.Lock()
	s.publisher = p
	listeners := append(([]func(string))(nil), s.onChange...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(p)
	}
	return p, nil
}

// OnChange registers a callback run after every successful Set
func (s *PublisherSettings) OnChange(fn func(string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// MsgProfileMissing is shown when an email is requested before the profile exists
const MsgProfileMissing = "Profilo promotore non configurato. Compila il profilo nelle impostazioni prima di generare l'email."

var validate = validator.New()

// fieldMessages are the operator-facing messages of profile field checks
var fieldMessages = map[string]string{
	"FullName.required": "Inserisci nome e cognome del promotore",
	"FullName.max":      "Il nome del promotore è troppo lungo",
	"Email.email":       "Indirizzo email non valido",
	"Phone.max":         "Numero di telefono troppo lungo",
	"Territory.max":     "Zona di competenza troppo lunga",
}

var fieldNames = map[string]string{
	"FullName":  "full_name",
	"Email":     "email",
	"Phone":     "phone",
	"Territory": "territory",
}

// ProfileService reads and writes the promoter profile
type ProfileService struct {
	repo  ports.PromoterRepository
	log   *internal.Logger
	clock core.Clock
}

// NewProfileService creates a profile service
func NewProfileService(repo ports.PromoterRepository, logger *internal.Logger) *ProfileService {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &ProfileService{repo: repo, log: logger, clock: core.SystemClock{}}
}

// Get returns the profile, or nil when none is configured
func (s *ProfileService) Get(ctx context.Context) (*promoter.Profile, error) {
	p, err := s.repo.Get(ctx)
	if err != nil {
		if core.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "load promoter profile")
	}
	return p, nil
}

// Require returns the profile or a user-facing error asking to configure it
func (s *ProfileService) Require(ctx context.Context) (*promoter.Profile, error) {
	p, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.UserFacing(errors.CodeValidationError, MsgProfileMissing, core.ErrProfileNotFound)
	}
	return p, nil
}

// Save validates and stores the profile
func (s *ProfileService) Save(ctx context.Context, p promoter.Profile) (*promoter.Profile, error) {
	p.FullName = strings.TrimSpace(p.FullName)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Email = strings.TrimSpace(p.Email)
	p.Territory = strings.TrimSpace(p.Territory)

	if err := validate.Struct(p); err != nil {
		return nil, profileViolations(err)
	}
	p.UpdatedAt = s.clock.Now()

	saved, err := s.repo.Upsert(ctx, &p)
	if err != nil {
		return nil, errors.Wrap(err, "save promoter profile")
	}
	s.log.Info("promoter profile saved", "full_name", saved.FullName)
	return saved, nil
}

func profileViolations(err error) error {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(err, "validate promoter profile")
	}
	violations := make([]errors.Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = "Valore non valido"
		}
		violations = append(violations, errors.Violation{Field: fieldNames[fe.Field()], Message: msg})
	}
	return errors.Invalid(violations...)
}
