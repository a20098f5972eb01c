package importer

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/tordrt/schemadesigner/internal/serializer"
)

// ShareParam is the query or fragment key carrying a shared schema
const ShareParam = "schema"

// ErrEmptyShareLink is returned when a link carries no schema payload
var ErrEmptyShareLink = errors.New("share link has no schema payload")

// LoadFile reads a suggested schema from a .json, .yaml or .yml file
func LoadFile(path string) (RawSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RawSchema{}, fmt.Errorf("failed to read schema file: %w", err)
	}
	format := serializer.FormatJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = serializer.FormatYAML
	}
	raw, err := Parse(data, format)
	if err != nil {
		return RawSchema{}, fmt.Errorf("%s: %w", path, err)
	}
	return raw, nil
}

// Parse decodes a schema document. YAML is converted to JSON first so both
// formats share one set of keys.
func Parse(data []byte, format serializer.Format) (RawSchema, error) {
	if format == serializer.FormatYAML {
		converted, err := yaml.YAMLToJSON(data)
		if err != nil {
			return RawSchema{}, fmt.Errorf("failed to parse yaml: %w", err)
		}
		data = converted
	}
	var raw RawSchema
	if err := json.Unmarshal(data, &raw); err != nil {
		return RawSchema{}, fmt.Errorf("failed to parse schema: %w", err)
	}
	return raw, nil
}

// EncodeShareLink packs a generator document into a URL-safe token
func EncodeShareLink(doc serializer.Document) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeShareLink unpacks a token produced by EncodeShareLink. A full URL
// is accepted too, with the token under the schema query or fragment key.
func DecodeShareLink(link string) (RawSchema, error) {
	token := strings.TrimSpace(link)
	if strings.Contains(token, "://") {
		u, err := url.Parse(token)
		if err != nil {
			return RawSchema{}, fmt.Errorf("invalid share link: %w", err)
		}
		token = u.Query().Get(ShareParam)
		if token == "" {
			if frag, err := url.ParseQuery(u.Fragment); err == nil {
				token = frag.Get(ShareParam)
			}
		}
	}
	token = strings.TrimRight(token, "=")
	if token == "" {
		return RawSchema{}, ErrEmptyShareLink
	}
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return RawSchema{}, fmt.Errorf("invalid share link encoding: %w", err)
	}
	return Parse(data, serializer.FormatJSON)
}
