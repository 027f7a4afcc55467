package internal

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

//go:embed inspect.html
var templatesFS embed.FS

type InspectRow struct {
	Key    string
	From   string
	To     string
	SentAt string
	Read   bool
	Text   string
}

type StatsProvider func() map[string]any

type PageData struct {
	Prefix string
	Items  []InspectRow
	Stats  map[string]any
}

// InspectHandler renders the raw message log straight from Badger. Debug
// surface only, mounted behind the authenticated group.
func InspectHandler(db *badger.DB, statsProvider StatsProvider) http.HandlerFunc {
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))

	return func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "msg:"
		}

		data := PageData{
			Prefix: prefix,
			Stats:  make(map[string]any),
		}
		if statsProvider != nil {
			data.Stats = statsProvider()
		}

		_ = db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				_ = item.Value(func(val []byte) error {
					data.Items = append(data.Items, mapRow(string(item.Key()), val))
					return nil
				})
			}
			return nil
		})

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	}
}

func mapRow(key string, val []byte) InspectRow {
	row := InspectRow{Key: key}

	var msg struct {
		From   string `json:"from"`
		To     string `json:"to"`
		Text   string `json:"text"`
		SentAt string `json:"timestamp"`
		Read   bool   `json:"read"`
	}
	if err := json.Unmarshal(val, &msg); err != nil {
		row.Text = fmt.Sprintf("RAW %d bytes", len(val))
		return row
	}

	row.From = msg.From
	row.To = msg.To
	row.Text = msg.Text
	row.Read = msg.Read
	if i := strings.Index(msg.SentAt, "."); i > 0 {
		row.SentAt = msg.SentAt[:i]
	} else {
		row.SentAt = msg.SentAt
	}
	return row
}
