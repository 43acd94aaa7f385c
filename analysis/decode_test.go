package analysis

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const testDoc = `
www.example.com.:
  zone: example.com.
  queries:
    - name: www.example.com.
      type: A
      records:
        - "www.example.com. 300 IN A 192.0.2.1"
        - "www.example.com. 300 IN A 192.0.2.2"
      signatures: []
    - name: www.example.com.
      type: AAAA
      records: []
      nxdomain:
        - server: 198.51.100.1
          client: 203.0.113.9
example.com.:
  zone: example.com.
  parent: com.
  dnskey:
    records:
      - "example.com. 3600 IN DNSKEY 257 3 13 mdsswUyr3DPW132mOi8V9xESWE8jTo0dxCjjnopKl+GqJxpVXckHAeF+KkxLbxILfDLUT0rAK9iUzy1L53eKGQ=="
  ds:
    records:
      - "example.com. 3600 IN DS 2371 13 2 32996839A6D808AFE3EB4A795A0E6A7A39A76FC52FF228B22B76F6D63826F2B9"
com.:
  zone: com.
  parent: .
  dnskey:
    records:
      - "com. 3600 IN DNSKEY 257 3 13 mdsswUyr3DPW132mOi8V9xESWE8jTo0dxCjjnopKl+GqJxpVXckHAeF+KkxLbxILfDLUT0rAK9iUzy1L53eKGQ=="
  ds_absent: true
.:
  zone: .
  dnskey:
    records:
      - ". 3600 IN DNSKEY 257 3 13 mdsswUyr3DPW132mOi8V9xESWE8jTo0dxCjjnopKl+GqJxpVXckHAeF+KkxLbxILfDLUT0rAK9iUzy1L53eKGQ=="
`

func TestNewStore(t *testing.T) {
	doc, err := Decode(strings.NewReader(testDoc))
	require.NoError(t, err)

	store, err := NewStore(doc, "www.example.com.")
	require.NoError(t, err)

	assert.Equal(t, "www.example.com.", store.Name)
	assert.Equal(t, "example.com.", store.Zone)

	// Both queries present, in sorted order.
	keys := store.QueryKeys()
	require.Len(t, keys, 2)
	assert.Equal(t, QueryKey{Name: "www.example.com.", Type: dns.TypeA}, keys[0])
	assert.Equal(t, QueryKey{Name: "www.example.com.", Type: dns.TypeAAAA}, keys[1])

	a := store.Query(keys[0])
	require.NotNil(t, a)
	assert.Len(t, a.Records, 2)
	assert.False(t, a.Negative())

	aaaa := store.Query(keys[1])
	require.NotNil(t, aaaa)
	assert.True(t, aaaa.Negative())
	require.Len(t, aaaa.NXDomain, 1)
	assert.Equal(t, "198.51.100.1", aaaa.NXDomain[0].Server)

	// The chain runs root first and resolves cross-references.
	require.Len(t, store.Chain, 3)
	assert.Equal(t, ".", store.Chain[0].Name)
	assert.Equal(t, "com.", store.Chain[1].Name)
	assert.Equal(t, "example.com.", store.Chain[2].Name)

	assert.True(t, store.Chain[1].DSAbsent)
	assert.Len(t, store.Chain[2].DSRecords(), 1)
	assert.Len(t, store.Chain[2].Keys(), 1)
}

func TestNewStore_CanonicalLookup(t *testing.T) {
	doc, err := Decode(strings.NewReader(testDoc))
	require.NoError(t, err)

	// A name without the trailing dot, in mixed case, still resolves.
	store, err := NewStore(doc, "WWW.Example.Com")
	require.NoError(t, err)
	assert.Equal(t, "www.example.com.", store.Name)
}

func TestNewStore_MissingName(t *testing.T) {
	doc, err := Decode(strings.NewReader(testDoc))
	require.NoError(t, err)

	_, err = NewStore(doc, "absent.example.org.")
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestNewStore_DanglingParent(t *testing.T) {
	text := `
www.example.com.:
  zone: example.com.
example.com.:
  zone: example.com.
  parent: com.
  dnskey:
    records: []
`
	doc, err := Decode(strings.NewReader(text))
	require.NoError(t, err)

	_, err = NewStore(doc, "www.example.com.")
	assert.ErrorIs(t, err, ErrMalformedInput)
	assert.ErrorIs(t, err, ErrDanglingParent)
}

func TestNewStore_MalformedRecord(t *testing.T) {
	text := `
www.example.com.:
  zone: www.example.com.
  dnskey:
    records: []
  queries:
    - name: www.example.com.
      type: A
      records:
        - "this is not a resource record"
`
	doc, err := Decode(strings.NewReader(text))
	require.NoError(t, err)

	_, err = NewStore(doc, "www.example.com.")
	assert.ErrorIs(t, err, ErrSchema)
}

func TestNewStore_QueryMissingType(t *testing.T) {
	text := `
www.example.com.:
  zone: www.example.com.
  dnskey:
    records: []
  queries:
    - name: www.example.com.
`
	doc, err := Decode(strings.NewReader(text))
	require.NoError(t, err)

	_, err = NewStore(doc, "www.example.com.")
	assert.ErrorIs(t, err, ErrSchema)
}

func TestNewStore_NonSignatureInSignatures(t *testing.T) {
	text := `
www.example.com.:
  zone: www.example.com.
  dnskey:
    records: []
  queries:
    - name: www.example.com.
      type: A
      records:
        - "www.example.com. 300 IN A 192.0.2.1"
      signatures:
        - "www.example.com. 300 IN A 192.0.2.2"
`
	doc, err := Decode(strings.NewReader(text))
	require.NoError(t, err)

	_, err = NewStore(doc, "www.example.com.")
	assert.ErrorIs(t, err, ErrSchema)
	assert.ErrorIs(t, err, ErrNotASignature)
}

func TestNewStore_ConflictingDS(t *testing.T) {
	text := `
example.com.:
  zone: example.com.
  parent: .
  dnskey:
    records: []
  ds:
    records:
      - "example.com. 3600 IN DS 2371 13 2 32996839A6D808AFE3EB4A795A0E6A7A39A76FC52FF228B22B76F6D63826F2B9"
  ds_absent: true
.:
  zone: .
  dnskey:
    records: []
`
	doc, err := Decode(strings.NewReader(text))
	require.NoError(t, err)

	_, err = NewStore(doc, "example.com.")
	assert.ErrorIs(t, err, ErrSchema)
	assert.ErrorIs(t, err, ErrConflictingDS)
}

func TestDecode_EmptyDocument(t *testing.T) {
	_, err := Decode(strings.NewReader("{}\n"))
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestDecodeJSON(t *testing.T) {

	// The same schema travels as JSON when the collector prefers it.

	raw := map[string]any{
		"www.example.com.": map[string]any{
			"zone": "www.example.com.",
			"dnskey": map[string]any{
				"records": []string{
					"www.example.com. 3600 IN DNSKEY 257 3 13 mdsswUyr3DPW132mOi8V9xESWE8jTo0dxCjjnopKl+GqJxpVXckHAeF+KkxLbxILfDLUT0rAK9iUzy1L53eKGQ==",
				},
			},
			"queries": []map[string]any{
				{
					"name":    "www.example.com.",
					"type":    "A",
					"records": []string{"www.example.com. 300 IN A 192.0.2.1"},
				},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(raw))

	doc, err := DecodeJSON(&buf)
	require.NoError(t, err)

	store, err := NewStore(doc, "www.example.com.")
	require.NoError(t, err)
	assert.Len(t, store.QueryKeys(), 1)
	require.Len(t, store.Chain, 1)
	assert.Equal(t, "www.example.com.", store.Chain[0].Name)
}

func TestDecode_RoundTripThroughYAMLMarshal(t *testing.T) {

	// Documents built programmatically and marshalled must decode the same.

	raw := map[string]any{
		"example.org.": map[string]any{
			"zone": "example.org.",
			"dnskey": map[string]any{
				"records": []string{
					"example.org. 3600 IN DNSKEY 257 3 13 mdsswUyr3DPW132mOi8V9xESWE8jTo0dxCjjnopKl+GqJxpVXckHAeF+KkxLbxILfDLUT0rAK9iUzy1L53eKGQ==",
				},
			},
		},
	}

	text, err := yaml.Marshal(raw)
	require.NoError(t, err)

	doc, err := Decode(bytes.NewReader(text))
	require.NoError(t, err)

	_, err = NewStore(doc, "example.org.")
	require.NoError(t, err)
}
