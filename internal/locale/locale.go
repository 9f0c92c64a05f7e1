package locale

import (
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys used for status text and operator prompts.
const (
	Idling                     = "idling"
	NoFiles                    = "no-files"
	FilteringFiles             = "filtering-files"
	ExtractingFiles            = "extracting-files"
	AllExtracted               = "all-extracted"
	DeletingFiles              = "deleting-files"
	DeletedFiles               = "deleted-files"
	FailedDeletingFile         = "failed-deleting-file"
	FailedOpeningFile          = "failed-opening-file"
	Swapped                    = "swapped"
	Copied                     = "copied"
	TaskBusy                   = "task-busy"
	ErrorSQLDetectionTitle     = "error-sql-detection-title"
	ErrorSQLDetectionText      = "error-sql-detection-description"
	ConfirmCustomSQLTitle      = "confirmation-custom-sql-title"
	ConfirmCustomSQLText       = "confirmation-custom-sql-description"
	EnterDatabasePath          = "enter-database-path"
	ErrorDirectoryNotFoundText = "error-directory-detection-description"
	ConfirmClearTitle          = "confirmation-clear-cache-title"
	ConfirmClearText           = "confirmation-clear-cache-description"
)

// Supported lists the languages with a catalog, English first.
var Supported = []language.Tag{language.English, language.Spanish}

var matcher = language.NewMatcher(Supported)

// Arguments are positional: item and total for progress messages, then the
// error text where one is reported.
var catalogs = map[language.Tag]map[string]string{
	language.English: {
		Idling:                     "Idling",
		NoFiles:                    "No files found",
		FilteringFiles:             "Filtering files (%[1]d/%[2]d)",
		ExtractingFiles:            "Extracting files (%[1]d/%[2]d)",
		AllExtracted:               "All files extracted",
		DeletingFiles:              "Deleting files (%[1]d/%[2]d)",
		DeletedFiles:               "Deleted files (%[1]d/%[2]d)",
		FailedDeletingFile:         "Failed to delete file (%[1]d/%[2]d): %[3]s",
		FailedOpeningFile:          "Failed to open file",
		Swapped:                    "Swapped %[1]s and %[2]s",
		Copied:                     "Copied %[1]s to %[2]s",
		TaskBusy:                   "Another task is already running",
		ErrorSQLDetectionTitle:     "Cache database not found",
		ErrorSQLDetectionText:      "Could not detect the Roblox cache database (rbx-storage.db).",
		ConfirmCustomSQLTitle:      "Choose a database",
		ConfirmCustomSQLText:       "Do you want to choose the database file yourself?",
		EnterDatabasePath:          "Path to rbx-storage.db: ",
		ErrorDirectoryNotFoundText: "Could not detect the Roblox cache directory.",
		ConfirmClearTitle:          "Clear cache",
		ConfirmClearText:           "Delete every cached asset? This cannot be undone.",
	},
	language.Spanish: {
		Idling:                     "En espera",
		NoFiles:                    "No se encontraron archivos",
		FilteringFiles:             "Filtrando archivos (%[1]d/%[2]d)",
		ExtractingFiles:            "Extrayendo archivos (%[1]d/%[2]d)",
		AllExtracted:               "Todos los archivos extraídos",
		DeletingFiles:              "Eliminando archivos (%[1]d/%[2]d)",
		DeletedFiles:               "Archivos eliminados (%[1]d/%[2]d)",
		FailedDeletingFile:         "No se pudo eliminar el archivo (%[1]d/%[2]d): %[3]s",
		FailedOpeningFile:          "No se pudo abrir el archivo",
		Swapped:                    "Se intercambiaron %[1]s y %[2]s",
		Copied:                     "Se copió %[1]s a %[2]s",
		TaskBusy:                   "Ya hay otra tarea en curso",
		ErrorSQLDetectionTitle:     "Base de datos de caché no encontrada",
		ErrorSQLDetectionText:      "No se pudo detectar la base de datos de caché de Roblox (rbx-storage.db).",
		ConfirmCustomSQLTitle:      "Elegir una base de datos",
		ConfirmCustomSQLText:       "¿Quieres elegir el archivo de base de datos tú mismo?",
		EnterDatabasePath:          "Ruta a rbx-storage.db: ",
		ErrorDirectoryNotFoundText: "No se pudo detectar el directorio de caché de Roblox.",
		ConfirmClearTitle:          "Vaciar caché",
		ConfirmClearText:           "¿Eliminar todos los recursos en caché? No se puede deshacer.",
	},
}

func init() {
	for tag, messages := range catalogs {
		for key, msg := range messages {
			if err := message.SetString(tag, key, msg); err != nil {
				panic("locale: " + err.Error())
			}
		}
	}
}

// Locale formats status messages in one language.
type Locale struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a Locale for the closest supported match of name (a BCP 47
// tag or a POSIX locale such as "es_ES.UTF-8"). Unknown names fall back to
// English.
func New(name string) *Locale {
	tag := Match(name)
	return &Locale{tag: tag, printer: message.NewPrinter(tag)}
}

// FromEnv returns a Locale for LC_ALL, LC_MESSAGES or LANG, in that order.
func FromEnv() *Locale {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(key); v != "" {
			return New(v)
		}
	}
	return New("")
}

// Match returns the supported language closest to name.
func Match(name string) language.Tag {
	name = strings.TrimSpace(name)
	if i := strings.IndexAny(name, ".@"); i >= 0 {
		name = name[:i]
	}
	name = strings.ReplaceAll(name, "_", "-")
	if name == "" || name == "C" || name == "POSIX" {
		return language.English
	}

	tag, err := language.Parse(name)
	if err != nil {
		return language.English
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return language.English
	}
	return Supported[idx]
}

// Tag returns the language of l.
func (l *Locale) Tag() language.Tag {
	return l.tag
}

// Get formats the message for key with args. A nil Locale formats English.
func (l *Locale) Get(key string, args ...any) string {
	if l == nil {
		l = New("")
	}
	return l.printer.Sprintf(key, args...)
}

// HasKey reports whether key has an English catalog entry.
func HasKey(key string) bool {
	_, ok := catalogs[language.English][key]
	return ok
}
