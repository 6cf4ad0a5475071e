package transfer

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	apperrors "github.com/livp123/gfcore/pkg/errors"
)

// documentSchema describes the export layout. Records inside the sections
// only need an id; their remaining fields are owned by the stores.
const documentSchema = `{
  "type": "object",
  "required": ["version", "exportedAt"],
  "properties": {
    "version":    {"type": "string", "minLength": 1},
    "exportedAt": {"type": "string", "minLength": 1},
    "profiles":   {"$ref": "#/definitions/records"},
    "subscribes": {"$ref": "#/definitions/records"},
    "rulesets":   {"$ref": "#/definitions/records"},
    "plugins":    {"$ref": "#/definitions/records"}
  },
  "definitions": {
    "records": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["id"],
        "properties": {"id": {"type": "string", "minLength": 1}}
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(documentSchema)

func validate(data []byte) error {
	res, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrImportInvalid, err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", apperrors.ErrImportInvalid, strings.Join(msgs, "; "))
}
