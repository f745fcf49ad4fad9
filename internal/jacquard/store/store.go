package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/msto63/mCW/foundation/core/validation"
	"github.com/msto63/mCW/foundation/gcode/dictionary"
)

// Profile describes one annotation profile in the catalog.
type Profile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DictionaryEntry is the persisted form of one annotation rule.
// ValueOrRange is a single number ("1"), a range ("54..59") or "*".
type DictionaryEntry struct {
	Letter       string `json:"letter"`
	ValueOrRange string `json:"value_or_range"`
	Description  string `json:"description"`
	ModalGroup   string `json:"modal_group,omitempty"`
}

// ToDictionary converts persisted entries into the engine's entry form.
func ToDictionary(entries []DictionaryEntry) []dictionary.Entry {
	out := make([]dictionary.Entry, len(entries))
	for i, e := range entries {
		out[i] = dictionary.Entry{
			Letter:      e.Letter,
			Pattern:     e.ValueOrRange,
			Description: e.Description,
			ModalGroup:  e.ModalGroup,
		}
	}
	return out
}

// FromDictionary converts engine entries back into the persisted form.
func FromDictionary(entries []dictionary.Entry) []DictionaryEntry {
	out := make([]DictionaryEntry, len(entries))
	for i, e := range entries {
		out[i] = DictionaryEntry{
			Letter:       e.Letter,
			ValueOrRange: e.Pattern,
			Description:  e.Description,
			ModalGroup:   e.ModalGroup,
		}
	}
	return out
}

// ProfileStore defines the interface for profile persistence.
//
// GetProfile returns (nil, nil) for an unknown name. Reads of a profile
// that has no dictionary or snippets yet return empty data, writes to an
// unknown profile fail.
type ProfileStore interface {
	// Profile catalog operations
	CreateProfile(ctx context.Context, p *Profile) error
	GetProfile(ctx context.Context, name string) (*Profile, error)
	UpdateProfile(ctx context.Context, p *Profile) error
	DeleteProfile(ctx context.Context, name string) error
	ListProfiles(ctx context.Context) ([]*Profile, error)

	// Dictionary operations
	GetEntries(ctx context.Context, profileName string) ([]DictionaryEntry, error)
	PutEntries(ctx context.Context, profileName string, entries []DictionaryEntry) error
	LookupEntries(ctx context.Context, profileName string) ([]dictionary.Entry, error)

	// Snippet operations
	GetSnippets(ctx context.Context, profileName string) (map[string]string, error)
	PutSnippets(ctx context.Context, profileName string, snippets map[string]string) error

	// Utility
	Close() error
	Statistics(ctx context.Context) (map[string]interface{}, error)
}

// Open creates a profile store of the given type. Supported types are
// "file" (JSON documents in a directory) and "sqlite".
func Open(storeType, path string, backups bool) (ProfileStore, error) {
	switch storeType {
	case "", "file":
		return NewFileStore(FileStoreConfig{Dir: path, Backups: backups})
	case "sqlite":
		return NewSQLiteStore(SQLiteStoreConfig{Path: path})
	default:
		return nil, fmt.Errorf("unknown store type: %s", storeType)
	}
}

// profileNameRules guards names that become file names and URL segments.
var profileNameRules = validation.NewChain("profile name",
	validation.NotEmpty(),
	validation.MaxLength(64),
	validation.NoControlChars(),
	validation.NoneOf("/", "\\", ".."),
)

func validateProfileName(name string) error {
	return profileNameRules.Validate(name)
}

// StandardProfileName is the name of the built-in profile seeded into
// an empty store so a fresh installation annotates meaningfully.
const StandardProfileName = "Standard"

func standardProfile() *Profile {
	now := time.Now()
	return &Profile{
		ID:          uuid.New().String(),
		Name:        StandardProfileName,
		Description: "Mitgelieferte Standardbelegung nach DIN 66025",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// StandardEntries returns the dictionary shipped with the built-in
// Standard profile: the common G- and M-codes plus the usual word
// letters. Descriptions are in German, matching the platform's
// user-facing language.
func StandardEntries() []DictionaryEntry {
	return []DictionaryEntry{
		{Letter: "%", ValueOrRange: "*", Description: "Programmanfang/-ende"},

		{Letter: "G", ValueOrRange: "0", Description: "Eilgang", ModalGroup: "motion"},
		{Letter: "G", ValueOrRange: "1", Description: "Linearinterpolation", ModalGroup: "motion"},
		{Letter: "G", ValueOrRange: "2", Description: "Kreisinterpolation im Uhrzeigersinn", ModalGroup: "motion"},
		{Letter: "G", ValueOrRange: "3", Description: "Kreisinterpolation gegen den Uhrzeigersinn", ModalGroup: "motion"},
		{Letter: "G", ValueOrRange: "4", Description: "Verweilzeit"},
		{Letter: "G", ValueOrRange: "17", Description: "Ebenenauswahl XY", ModalGroup: "plane"},
		{Letter: "G", ValueOrRange: "18", Description: "Ebenenauswahl XZ", ModalGroup: "plane"},
		{Letter: "G", ValueOrRange: "19", Description: "Ebenenauswahl YZ", ModalGroup: "plane"},
		{Letter: "G", ValueOrRange: "20", Description: "Maßangaben in Zoll", ModalGroup: "units"},
		{Letter: "G", ValueOrRange: "21", Description: "Maßangaben in Millimeter", ModalGroup: "units"},
		{Letter: "G", ValueOrRange: "28", Description: "Referenzpunkt anfahren"},
		{Letter: "G", ValueOrRange: "40", Description: "Werkzeugradiuskorrektur aus"},
		{Letter: "G", ValueOrRange: "41", Description: "Werkzeugradiuskorrektur links"},
		{Letter: "G", ValueOrRange: "42", Description: "Werkzeugradiuskorrektur rechts"},
		{Letter: "G", ValueOrRange: "53", Description: "Maschinenkoordinatensystem"},
		{Letter: "G", ValueOrRange: "54..59", Description: "Werkstückkoordinatensystem"},
		{Letter: "G", ValueOrRange: "80", Description: "Zyklus abwählen"},
		{Letter: "G", ValueOrRange: "90", Description: "Absolutmaßprogrammierung", ModalGroup: "positioning"},
		{Letter: "G", ValueOrRange: "91", Description: "Kettenmaßprogrammierung", ModalGroup: "positioning"},
		{Letter: "G", ValueOrRange: "94", Description: "Vorschub in mm/min", ModalGroup: "feed-mode"},
		{Letter: "G", ValueOrRange: "95", Description: "Vorschub in mm/Umdrehung", ModalGroup: "feed-mode"},

		{Letter: "M", ValueOrRange: "0", Description: "Programmierter Halt"},
		{Letter: "M", ValueOrRange: "1", Description: "Wahlweiser Halt"},
		{Letter: "M", ValueOrRange: "2", Description: "Programmende"},
		{Letter: "M", ValueOrRange: "3", Description: "Spindel ein, Rechtslauf", ModalGroup: "spindle"},
		{Letter: "M", ValueOrRange: "4", Description: "Spindel ein, Linkslauf", ModalGroup: "spindle"},
		{Letter: "M", ValueOrRange: "5", Description: "Spindel aus", ModalGroup: "spindle"},
		{Letter: "M", ValueOrRange: "6", Description: "Werkzeugwechsel", ModalGroup: "tool"},
		{Letter: "M", ValueOrRange: "8", Description: "Kühlmittel ein"},
		{Letter: "M", ValueOrRange: "9", Description: "Kühlmittel aus"},
		{Letter: "M", ValueOrRange: "30", Description: "Programmende mit Rücksprung"},

		{Letter: "T", ValueOrRange: "*", Description: "Werkzeugnummer"},
		{Letter: "F", ValueOrRange: "*", Description: "Vorschub"},
		{Letter: "S", ValueOrRange: "*", Description: "Spindeldrehzahl"},
		{Letter: "N", ValueOrRange: "*", Description: "Satznummer"},
		{Letter: "X", ValueOrRange: "*", Description: "X-Achse"},
		{Letter: "Y", ValueOrRange: "*", Description: "Y-Achse"},
		{Letter: "Z", ValueOrRange: "*", Description: "Z-Achse"},
		{Letter: "I", ValueOrRange: "*", Description: "Kreismittelpunkt X"},
		{Letter: "J", ValueOrRange: "*", Description: "Kreismittelpunkt Y"},
		{Letter: "K", ValueOrRange: "*", Description: "Kreismittelpunkt Z"},
		{Letter: "R", ValueOrRange: "*", Description: "Radius"},
		{Letter: "Q", ValueOrRange: "*", Description: "Zustellung im Zyklus"},
		{Letter: "P", ValueOrRange: "*", Description: "Verweilzeit/Parameter"},
		{Letter: ",R", ValueOrRange: "*", Description: "Rundung"},
		{Letter: ",C", ValueOrRange: "*", Description: "Fase"},
	}
}
