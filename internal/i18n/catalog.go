package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// German strings for the CLI. Keys are the English format strings.
var german = map[string]string{
	"Connecting to %s\n":                       "Verbinde mit %s\n",
	"Connected to %s\n":                        "Verbunden mit %s\n",
	"Not connected: %v\n":                      "Nicht verbunden: %v\n",
	"Sent %s\n":                                "%s gesendet\n",
	"Parameter %s set to %v\n":                 "Parameter %s auf %v gesetzt\n",
	"Rejected %s=%v: %v\n":                     "%s=%v abgelehnt: %v\n",
	"Pattern %s requested\n":                   "Muster %s angefordert\n",
	"Saved recording %s (%d frames)\n":         "Aufzeichnung %s gespeichert (%d Frames)\n",
	"Deleted recording %s\n":                   "Aufzeichnung %s gelöscht\n",
	"Exported recording %s to %s\n":            "Aufzeichnung %s nach %s exportiert\n",
	"Imported %s as %s\n":                      "%s als %s importiert\n",
	"No recordings.\n":                         "Keine Aufzeichnungen.\n",
	"Dev server listening on %s\n":             "Entwicklungsserver lauscht auf %s\n",
	"Server reply: %s\n":                       "Antwort des Servers: %s\n",
	"Gave up after %d reconnect attempts\n":    "Nach %d Verbindungsversuchen aufgegeben\n",
	"Wrote default config to %s\n":             "Standardkonfiguration nach %s geschrieben\n",
	"Timed out waiting for the server reply\n": "Zeitüberschreitung beim Warten auf die Serverantwort\n",
	"Error: %v\n":                              "Fehler: %v\n",
}

func init() {
	for key, msg := range german {
		_ = message.SetString(language.German, key, msg)
	}
}
