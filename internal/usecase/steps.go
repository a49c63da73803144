package usecase

import (
	"strings"

	"scholarship-telegram-bot/internal/domain"
)

// StepID names one question of the application. It equals the answer field it fills.
type StepID string

const (
	StepName           StepID = domain.FieldName
	StepEmail          StepID = domain.FieldEmail
	StepPhone          StepID = domain.FieldPhone
	StepDateOfBirth    StepID = domain.FieldDateOfBirth
	StepCountry        StepID = domain.FieldCountry
	StepPassportNumber StepID = domain.FieldPassportNumber
	StepPassportExpiry StepID = domain.FieldPassportExpiry
	StepBirthPlace     StepID = domain.FieldBirthPlace
	StepEducationLevel StepID = domain.FieldEducationLevel
	StepSchoolName     StepID = domain.FieldSchoolName
	StepGraduationYear StepID = domain.FieldGraduationYear
	StepFieldStudy     StepID = domain.FieldFieldStudy
	StepGPA            StepID = domain.FieldGPA
	StepDesiredLevel   StepID = domain.FieldDesiredLevel
	StepPreferredField StepID = domain.FieldPreferredField
	StepRussianLevel   StepID = domain.FieldRussianLevel
	StepServicePackage StepID = domain.FieldServicePackage
)

// Terminal machine states. StageSubmitted is also the last funnel stage.
const (
	StageSubmitted StepID = "submitted"
	StageFailed    StepID = "failed"
	StageCancelled StepID = "cancelled"
)

type StepKind int

const (
	KindText StepKind = iota
	KindOptionalText
	KindChoice
)

// SkipToken lets the applicant leave an optional step empty.
const SkipToken = "skip"

const (
	PackageBasic   = "Basic Application Service - Form completion, Document review, Application submission"
	PackagePremium = "Premium Full Service - Everything in Basic + Document preparation, University selection"
	PackageVIP     = "VIP Complete Package - Everything in Premium + Visa assistance, Accommodation help"
)

type Step struct {
	ID    StepID
	Kind  StepKind
	Label string
	// Ack overrides the default "<Label> recorded" acknowledgement; {value} is replaced by the answer.
	Ack     string
	Intro   string
	Prompt  string
	Options [][]string
}

// Acknowledge renders the confirmation sent after value was accepted for s.
func (s Step) Acknowledge(value string) string {
	ack := s.Ack
	if ack == "" {
		ack = "✅ " + s.Label + " recorded: {value}"
	}
	return strings.ReplaceAll(ack, "{value}", value)
}

// Steps is the ordered step table of the questionnaire.
type Steps struct {
	order []Step
	index map[StepID]int
}

func NewSteps(order []Step) *Steps {
	idx := make(map[StepID]int, len(order))
	for i, s := range order {
		idx[s.ID] = i
	}
	return &Steps{order: order, index: idx}
}

func (s *Steps) First() Step { return s.order[0] }

func (s *Steps) Last() Step { return s.order[len(s.order)-1] }

func (s *Steps) Len() int { return len(s.order) }

func (s *Steps) All() []Step {
	out := make([]Step, len(s.order))
	copy(out, s.order)
	return out
}

func (s *Steps) Lookup(id StepID) (Step, bool) {
	i, ok := s.index[id]
	if !ok {
		return Step{}, false
	}
	return s.order[i], true
}

// Position returns the 1-based position of id, or 0 if it is not a step.
func (s *Steps) Position(id StepID) int {
	i, ok := s.index[id]
	if !ok {
		return 0
	}
	return i + 1
}

// ScholarshipSteps returns the 17-step scholarship questionnaire.
func ScholarshipSteps() *Steps {
	return NewSteps([]Step{
		// personal information
		{ID: StepName, Kind: KindText, Label: "Name",
			Prompt: "📝 Please type your FULL NAME as it appears in your passport:"},
		{ID: StepEmail, Kind: KindText, Label: "Email",
			Prompt: "Now, please provide your:\n📧 EMAIL ADDRESS:"},
		{ID: StepPhone, Kind: KindText, Label: "Phone",
			Prompt: "📞 PHONE NUMBER (with country code):\nExample: +1234567890"},
		{ID: StepDateOfBirth, Kind: KindText, Label: "Date of birth",
			Prompt: "📅 DATE OF BIRTH (DD/MM/YYYY):\nExample: 15/05/2000"},
		{ID: StepCountry, Kind: KindText, Label: "Country",
			Prompt: "🌍 COUNTRY OF CITIZENSHIP:\nExample: Nigeria, India, Pakistan, etc."},
		{ID: StepPassportNumber, Kind: KindText, Label: "Passport number",
			Prompt: "📔 PASSPORT NUMBER:\nExample: A12345678"},
		{ID: StepPassportExpiry, Kind: KindText, Label: "Passport expiry",
			Prompt: "📅 PASSPORT EXPIRY DATE (DD/MM/YYYY):\nExample: 15/05/2030"},
		{ID: StepBirthPlace, Kind: KindText, Label: "Birth place",
			Prompt: "📍 PLACE OF BIRTH (City, Country):\nExample: Lagos, Nigeria"},

		// education
		{ID: StepEducationLevel, Kind: KindChoice, Label: "Education level",
			Intro:  "🎓 Now let's talk about your education:",
			Prompt: "What is your HIGHEST EDUCATION LEVEL?\nChoose one from below:",
			Options: [][]string{
				{"High School Diploma", "Bachelor's Degree"},
				{"Master's Degree", "Other"},
			}},
		{ID: StepSchoolName, Kind: KindText, Label: "School",
			Prompt: "🏫 NAME OF SCHOOL/UNIVERSITY:\nExample: University of Lagos"},
		{ID: StepGraduationYear, Kind: KindText, Label: "Graduation year",
			Prompt: "📅 YEAR OF GRADUATION:\nExample: 2023"},
		{ID: StepFieldStudy, Kind: KindText, Label: "Field of study",
			Prompt: "📚 FIELD OF STUDY:\nExample: Computer Science, Business Administration, Medicine"},
		{ID: StepGPA, Kind: KindOptionalText, Label: "GPA",
			Ack:    "✅ Education information complete!",
			Prompt: "📊 GPA OR GRADES (Optional):\nExample: 3.5/4.0 or 85%\nYou can type 'Skip' if you prefer not to share"},

		// study preferences
		{ID: StepDesiredLevel, Kind: KindChoice, Label: "Desired level",
			Intro:  "📚 What do you want to study in Russia?",
			Prompt: "Choose your desired level:",
			Options: [][]string{
				{"Bachelor's Degree", "Master's Degree"},
				{"PhD/Postgraduate", "Preparatory Course"},
			}},
		{ID: StepPreferredField, Kind: KindChoice, Label: "Preferred field",
			Prompt: "Preferred Field:\nChoose your field of interest:",
			Options: [][]string{
				{"Medicine & Healthcare", "Engineering & Technology"},
				{"Business & Economics", "Computer Science & IT"},
				{"Arts & Humanities", "Science & Mathematics"},
				{"Other Field"},
			}},
		{ID: StepRussianLevel, Kind: KindChoice, Label: "Russian level",
			Prompt: "🇷🇺 RUSSIAN LANGUAGE LEVEL:\nChoose your current level:",
			Options: [][]string{
				{"None", "Beginner"},
				{"Intermediate", "Advanced"},
			}},

		// service package
		{ID: StepServicePackage, Kind: KindChoice, Label: "Service package",
			Intro: "💼 Almost done! Please choose your service package:",
			Prompt: "Basic Application Service ($50)\n" +
				"• Form completion\n• Document review\n• Application submission\n\n" +
				"Premium Full Service ($100)\n" +
				"• Everything in Basic +\n• Document preparation help\n• University selection advice\n\n" +
				"VIP Complete Package ($200)\n" +
				"• Everything in Premium +\n• Visa assistance\n• Accommodation help\n\n" +
				"Select your preferred option:",
			Options: [][]string{{PackageBasic}, {PackagePremium}, {PackageVIP}}},
	})
}
