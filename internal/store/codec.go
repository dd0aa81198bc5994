package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	contacts "github.com/smileynet/contacts"
	"github.com/smileynet/contacts/internal/contact"
)

const schemaURL = "https://github.com/smileynet/contacts/schemas/contacts.schema.json"

// blobSchema validates the persisted collection before it is decoded.
var blobSchema = mustCompileSchema(contacts.ContactsSchema)

func mustCompileSchema(data []byte) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(data)); err != nil {
		panic(fmt.Sprintf("store: loading embedded schema: %v", err))
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		panic(fmt.Sprintf("store: compiling embedded schema: %v", err))
	}
	return schema
}

// Encode serializes the full collection as a JSON array. A nil slice encodes as [].
func Encode(list []contact.Contact) ([]byte, error) {
	if list == nil {
		list = []contact.Contact{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("store: marshaling: %w", err)
	}
	return data, nil
}

// Decode parses a persisted blob. Malformed JSON, a shape that does not match
// the contacts schema, or duplicate IDs all yield ErrStorageCorruption.
func Decode(data []byte) ([]contact.Contact, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing: %w", ErrStorageCorruption, err)
	}
	if err := blobSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageCorruption, err)
	}

	var list []contact.Contact
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w: decoding: %w", ErrStorageCorruption, err)
	}

	seen := make(map[string]bool, len(list))
	for _, c := range list {
		if seen[c.ID] {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrStorageCorruption, c.ID)
		}
		seen[c.ID] = true
	}
	return list, nil
}
