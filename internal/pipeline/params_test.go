package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeParams(t *testing.T) {
	raw := map[interface{}]interface{}{
		"mapping": map[interface{}]interface{}{
			"category": "label",
		},
		"columns": []interface{}{"a", "b"},
		"count":   3,
	}

	p := NormalizeParams(raw)

	mapping, err := p.StringMap("mapping")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"category": "label"}, mapping)

	columns, err := p.StringSlice("columns")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, columns)
}

func TestParamsString(t *testing.T) {
	p := Params{"name": "value", "num": 7}

	assert.Equal(t, "value", p.String("name", "def"))
	assert.Equal(t, "7", p.String("num", "def"))
	assert.Equal(t, "def", p.String("missing", "def"))
}

func TestParamsRequireString(t *testing.T) {
	p := Params{"name": "value", "empty": ""}

	v, err := p.RequireString("name")
	require.NoError(t, err)
	assert.Equal(t, "value", v)

	_, err = p.RequireString("missing")
	require.Error(t, err)
	assert.Equal(t, ErrorKindValidation, KindOf(err))

	_, err = p.RequireString("empty")
	assert.Error(t, err)
}

func TestParamsNumeric(t *testing.T) {
	p := Params{"i": 5, "f": 2.5, "bad": "x"}

	n, err := p.Int("i", 0)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = p.Int("missing", 9)
	require.NoError(t, err)
	assert.Equal(t, 9, n)

	f, err := p.Float("f", 0)
	require.NoError(t, err)
	assert.Equal(t, 2.5, f)

	f, err = p.Float("i", 0)
	require.NoError(t, err)
	assert.Equal(t, 5.0, f)

	_, err = p.Int("bad", 0)
	assert.Error(t, err)

	_, err = p.RequireFloat("missing")
	require.Error(t, err)
	assert.Equal(t, ErrorKindValidation, KindOf(err))
}

func TestParamsBool(t *testing.T) {
	p := Params{"b": true, "bad": "yes"}

	b, err := p.Bool("b", false)
	require.NoError(t, err)
	assert.True(t, b)

	b, err = p.Bool("missing", true)
	require.NoError(t, err)
	assert.True(t, b)

	_, err = p.Bool("bad", false)
	assert.Error(t, err)
}

func TestParamsDuration(t *testing.T) {
	p := Params{"gap": "1h30m", "bad": "soon"}

	d, err := p.Duration("gap", 0)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, d)

	d, err = p.Duration("missing", 20*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 20*time.Second, d)

	_, err = p.Duration("bad", 0)
	assert.Error(t, err)

	_, err = p.RequireDuration("missing")
	require.Error(t, err)
	assert.Equal(t, ErrorKindValidation, KindOf(err))
}

func TestParamsStringSlice(t *testing.T) {
	p := Params{"columns": []interface{}{"a", 2}, "notalist": "x", "empty": []interface{}{}}

	items, err := p.StringSlice("columns")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "2"}, items)

	items, err = p.StringSlice("missing")
	require.NoError(t, err)
	assert.Nil(t, items)

	_, err = p.StringSlice("notalist")
	assert.Error(t, err)

	_, err = p.RequireStringSlice("empty")
	require.Error(t, err)
	assert.Equal(t, ErrorKindValidation, KindOf(err))

	_, err = p.RequireStringSlice("missing")
	assert.Error(t, err)
}

func TestParamsStringMap(t *testing.T) {
	p := Params{
		"mapping":  map[string]interface{}{"a": "b"},
		"notamap":  "x",
		"emptymap": map[string]interface{}{},
	}

	m, err := p.StringMap("mapping")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "b"}, m)

	m, err = p.StringMap("missing")
	require.NoError(t, err)
	assert.Nil(t, m)

	_, err = p.StringMap("notamap")
	assert.Error(t, err)

	_, err = p.RequireStringMap("emptymap")
	require.Error(t, err)
	assert.Equal(t, ErrorKindValidation, KindOf(err))
}

func TestParamsRequireTime(t *testing.T) {
	p := Params{
		"date":      "2024-09-05",
		"timestamp": "2024-09-05 13:45:00",
		"bad":       "yesterday",
	}

	ts, err := p.RequireTime("date")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 9, 5, 0, 0, 0, 0, time.UTC), ts)

	ts, err = p.RequireTime("timestamp")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 9, 5, 13, 45, 0, 0, time.UTC), ts)

	_, err = p.RequireTime("bad")
	assert.Error(t, err)

	_, err = p.RequireTime("missing")
	require.Error(t, err)
	assert.Equal(t, ErrorKindValidation, KindOf(err))
}
