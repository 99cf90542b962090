package sharepoint

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
)

// searchEnvelope is the verbose response of _api/search/query.
type searchEnvelope struct {
	D struct {
		Query struct {
			PrimaryQueryResult struct {
				RelevantResults struct {
					Table struct {
						Rows struct {
							Results []struct {
								Cells struct {
									Results []domain.Cell `json:"results"`
								} `json:"Cells"`
							} `json:"results"`
						} `json:"Rows"`
					} `json:"Table"`
				} `json:"RelevantResults"`
			} `json:"PrimaryQueryResult"`
		} `json:"query"`
	} `json:"d"`
}

func (e *searchEnvelope) rows() []domain.Row {
	results := e.D.Query.PrimaryQueryResult.RelevantResults.Table.Rows.Results
	rows := make([]domain.Row, 0, len(results))
	for _, r := range results {
		rows = append(rows, domain.Row{Cells: r.Cells.Results})
	}
	return rows
}

// listEnvelope is the verbose response for a single list.
type listEnvelope struct {
	D struct {
		ID    string `json:"Id"`
		Title string `json:"Title"`
	} `json:"d"`
}

// itemsEnvelope is the verbose response for a list item collection.
type itemsEnvelope struct {
	D struct {
		Results []struct {
			ID                   int    `json:"Id"`
			EncodedAbsURL        string `json:"EncodedAbsUrl"`
			FileSystemObjectType int    `json:"FileSystemObjectType"`
		} `json:"results"`
	} `json:"d"`
}

// changesEnvelope is the verbose response of GetChanges. Rows are kept raw
// because their shape depends on the change subtype.
type changesEnvelope struct {
	D struct {
		Results []map[string]json.RawMessage `json:"results"`
	} `json:"d"`
}

// changeTokenValue is the nested ChangeToken object of a change row.
type changeTokenValue struct {
	StringValue string `json:"StringValue"`
}

// SharePoint ChangeType values.
const (
	changeTypeAdd          = 1
	changeTypeUpdate       = 2
	changeTypeDeleteObject = 3
)

func changeKind(changeType int) domain.ChangeKind {
	switch changeType {
	case changeTypeAdd:
		return domain.ChangeAdd
	case changeTypeUpdate:
		return domain.ChangeUpdate
	case changeTypeDeleteObject:
		return domain.ChangeDelete
	default:
		return domain.ChangeOther
	}
}

// decodeChange maps one raw change row. Scalar fields become properties;
// nested objects other than ChangeToken are dropped.
func decodeChange(row map[string]json.RawMessage) domain.RawChange {
	raw := domain.RawChange{Properties: make(domain.Properties, len(row))}

	for key, value := range row {
		switch key {
		case "ChangeType":
			var n int
			if json.Unmarshal(value, &n) == nil {
				raw.Kind = changeKind(n)
			}
		case "ChangeToken":
			var tok changeTokenValue
			if json.Unmarshal(value, &tok) == nil {
				raw.Token = domain.ChangeToken(tok.StringValue)
			}
		case "Time":
			_ = json.Unmarshal(value, &raw.Time)
		default:
			if s, ok := scalarString(value); ok {
				raw.Properties[key] = s
			}
		}
	}
	return raw
}

func scalarString(value json.RawMessage) (string, bool) {
	value = bytes.TrimSpace(value)
	if len(value) == 0 {
		return "", false
	}
	switch value[0] {
	case '"':
		var s string
		if json.Unmarshal(value, &s) != nil {
			return "", false
		}
		return s, true
	case 't', 'f':
		var b bool
		if json.Unmarshal(value, &b) != nil {
			return "", false
		}
		return strconv.FormatBool(b), true
	case '{', '[', 'n':
		return "", false
	default:
		var n json.Number
		if json.Unmarshal(value, &n) != nil {
			return "", false
		}
		return n.String(), true
	}
}

// changeQueryBody builds the SP.ChangeQuery request for GetChanges.
func changeQueryBody(token domain.ChangeToken) map[string]any {
	query := map[string]any{
		"__metadata":   map[string]string{"type": "SP.ChangeQuery"},
		"Add":          true,
		"Update":       true,
		"DeleteObject": true,
		"Item":         true,
		"File":         true,
	}
	if token != "" {
		query["ChangeTokenStart"] = map[string]any{
			"__metadata":  map[string]string{"type": "SP.ChangeToken"},
			"StringValue": string(token),
		}
	}
	return map[string]any{"query": query}
}

// odataError is the verbose error body.
type odataError struct {
	Error struct {
		Code    string `json:"code"`
		Message struct {
			Value string `json:"value"`
		} `json:"message"`
	} `json:"error"`
}

func errorMessage(body []byte, status string) string {
	var e odataError
	if json.Unmarshal(body, &e) == nil && e.Error.Message.Value != "" {
		return e.Error.Message.Value
	}
	return status
}
