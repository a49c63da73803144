package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusSubmitted  Status = "submitted"
	StatusProcessing Status = "processing"
)

var (
	// ErrStorage wraps every I/O failure of an application store.
	ErrStorage = errors.New("application storage failure")
	// ErrApplicationNotFound is returned when a user has never submitted an application.
	ErrApplicationNotFound = errors.New("application not found")
)

// Answer field names. They double as step identifiers and as storage column names.
const (
	FieldName           = "name"
	FieldEmail          = "email"
	FieldPhone          = "phone"
	FieldDateOfBirth    = "date_of_birth"
	FieldCountry        = "country"
	FieldPassportNumber = "passport_number"
	FieldPassportExpiry = "passport_expiry"
	FieldBirthPlace     = "birth_place"
	FieldEducationLevel = "education_level"
	FieldSchoolName     = "school_name"
	FieldGraduationYear = "graduation_year"
	FieldFieldStudy     = "field_study"
	FieldGPA            = "gpa"
	FieldDesiredLevel   = "desired_level"
	FieldPreferredField = "preferred_field"
	FieldRussianLevel   = "russian_level"
	FieldServicePackage = "service_package"
	FieldPrice          = "price"
)

// AnswerFields lists the string fields of an application in storage order.
var AnswerFields = []string{
	FieldName, FieldEmail, FieldPhone, FieldDateOfBirth, FieldCountry,
	FieldPassportNumber, FieldPassportExpiry, FieldBirthPlace,
	FieldEducationLevel, FieldSchoolName, FieldGraduationYear, FieldFieldStudy, FieldGPA,
	FieldDesiredLevel, FieldPreferredField, FieldRussianLevel,
	FieldServicePackage, FieldPrice,
}

// Application is a submitted scholarship application. It is immutable once committed.
type Application struct {
	ID          string
	UserID      int64
	SubmittedAt time.Time
	Status      Status

	Name           string
	Email          string
	Phone          string
	DateOfBirth    string
	Country        string
	PassportNumber string
	PassportExpiry string
	BirthPlace     string
	EducationLevel string
	SchoolName     string
	GraduationYear string
	FieldStudy     string
	GPA            string // empty when the applicant skipped it
	DesiredLevel   string
	PreferredField string
	RussianLevel   string
	ServicePackage string
	Price          string
}

// Answer returns the value of a named answer field.
func (a Application) Answer(field string) string {
	if p := a.answerPtr(field); p != nil {
		return *p
	}
	return ""
}

// SetAnswer stores value under a named answer field. It reports false for unknown fields.
func (a *Application) SetAnswer(field, value string) bool {
	p := a.answerPtr(field)
	if p == nil {
		return false
	}
	*p = value
	return true
}

func (a *Application) answerPtr(field string) *string {
	switch field {
	case FieldName:
		return &a.Name
	case FieldEmail:
		return &a.Email
	case FieldPhone:
		return &a.Phone
	case FieldDateOfBirth:
		return &a.DateOfBirth
	case FieldCountry:
		return &a.Country
	case FieldPassportNumber:
		return &a.PassportNumber
	case FieldPassportExpiry:
		return &a.PassportExpiry
	case FieldBirthPlace:
		return &a.BirthPlace
	case FieldEducationLevel:
		return &a.EducationLevel
	case FieldSchoolName:
		return &a.SchoolName
	case FieldGraduationYear:
		return &a.GraduationYear
	case FieldFieldStudy:
		return &a.FieldStudy
	case FieldGPA:
		return &a.GPA
	case FieldDesiredLevel:
		return &a.DesiredLevel
	case FieldPreferredField:
		return &a.PreferredField
	case FieldRussianLevel:
		return &a.RussianLevel
	case FieldServicePackage:
		return &a.ServicePackage
	case FieldPrice:
		return &a.Price
	}
	return nil
}

// ApplicationRepository is the append-only record store.
type ApplicationRepository interface {
	// Commit assigns a fresh application id, appends the record and returns the id.
	Commit(ctx context.Context, app Application) (string, error)
	// FindLatestByUser returns the most recently submitted application of userID
	// or ErrApplicationNotFound.
	FindLatestByUser(ctx context.Context, userID int64) (Application, error)
}

// NewApplicationID returns a short random application id (8 hex characters).
func NewApplicationID() string {
	return uuid.NewString()[:8]
}
