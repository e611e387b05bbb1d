package nacc

// Header field names stamped on every form, in serialization order.
const (
	HeaderPacket   = "PACKET"
	HeaderFormID   = "FORMID"
	HeaderFormVer  = "FORMVER"
	HeaderADCID    = "ADCID"
	HeaderPTID     = "PTID"
	HeaderVisitMo  = "VISITMO"
	HeaderVisitDay = "VISITDAY"
	HeaderVisitYr  = "VISITYR"
	HeaderVisitNum = "VISITNUM"
	HeaderInitials = "INITIALS"
)

// Raw record columns the header is copied from.
const (
	ColumnADCID      = "adcid"
	ColumnPTID       = "ptid"
	ColumnVisitMo    = "visitmo"
	ColumnVisitDay   = "visitday"
	ColumnVisitYr    = "visityr"
	ColumnVisitNum   = "visitnum"
	ColumnInitials   = "initials"
	ColumnEventName  = "redcap_event_name"
	DateComponentSep = "-"
)

// TypeClass is the declared character class of a field.
type TypeClass string

const (
	// TypeNum fields are untyped strings right-justified on output.
	TypeNum TypeClass = "Num"
	// TypeChar fields are free text and subject to the forbidden
	// character scan.
	TypeChar TypeClass = "Char"
)

// Default widths for fields that do not declare one.
const (
	DefaultNumLength  = 4
	DefaultCharLength = 60
)

// Role controls when a form of a protocol is built.
type Role string

const (
	RoleHeader   Role = "header"
	RoleRequired Role = "required"
	RoleOptional Role = "optional"
)

// Normalization selects the pre-validation mutation a protocol runs.
// The modes are exclusive: a protocol runs at most one of them.
type Normalization string

const (
	NormalizeNone     Normalization = "none"
	NormalizeZeroFill Normalization = "zerofill"
	NormalizeReblank  Normalization = "reblank"
)

// Diagnostic markers written to the diagnostics sink.
const (
	MarkerStart   = "[START]"
	MarkerSkip    = "[SKIP]"
	MarkerWarning = "[WARNING]"
)

// Values used by the routing filter and the source binding grammar.
const (
	OmitEmptyBindingModifier = "omitempty"
	RequiredBindingModifier  = "required"
	BindingModifierDelimiter = ","
	SelectedValue            = "1"
	ZeroValue                = "0"
	DefaultAffirmativeValue  = "1"
	CutoffLayout             = "2006-01-02"
)

// incompleteValues mark a REDCap instrument as not started or not saved.
var incompleteValues = []string{"0", ""}

// headerLayout is the fixed set of header fields, their widths and type
// classes.
var headerLayout = []struct {
	Name   string
	Length int
	Type   TypeClass
}{
	{HeaderPacket, 2, TypeChar},
	{HeaderFormID, 3, TypeChar},
	{HeaderFormVer, 3, TypeNum},
	{HeaderADCID, 2, TypeNum},
	{HeaderPTID, 10, TypeChar},
	{HeaderVisitMo, 2, TypeNum},
	{HeaderVisitDay, 2, TypeNum},
	{HeaderVisitYr, 4, TypeNum},
	{HeaderVisitNum, 3, TypeChar},
	{HeaderInitials, 3, TypeChar},
}
