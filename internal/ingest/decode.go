package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/pable/go-raid-metrics/internal/model"
)

// fields is one upstream row keyed by normalised column name. Null and
// absent values are simply missing.
type fields map[string]string

var keyNormaliser = strings.NewReplacer("_", "", "-", "", " ", "")

func normaliseKey(k string) string {
	return strings.ToLower(keyNormaliser.Replace(strings.TrimSpace(k)))
}

// aliases maps a canonical field to other names seen in exports.
var aliases = map[string][]string{
	"displayname": {"player", "playername"},
	"name":        {"boss", "bossname"},
	"remaininghp": {"remaining"},
	"damagedealt": {"damage"},
	"enemyhp":     {"maxhp"},
}

func (f fields) get(key string) (string, bool) {
	if v, ok := f[key]; ok {
		return v, true
	}
	for _, alt := range aliases[key] {
		if v, ok := f[alt]; ok {
			return v, true
		}
	}
	return "", false
}

func (f fields) str(key string) string {
	v, _ := f.get(key)
	return strings.TrimSpace(v)
}

func (f fields) intOr(key string, def int) int {
	v := f.str(key)
	if v == "" || strings.EqualFold(v, "null") {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	if x, err := strconv.ParseFloat(v, 64); err == nil {
		return int(x)
	}
	return def
}

func (f fields) floatOr(key string, def float64) float64 {
	v := f.str(key)
	if v == "" || strings.EqualFold(v, "null") {
		return def
	}
	if x, err := strconv.ParseFloat(v, 64); err == nil {
		return x
	}
	return def
}

// record converts a row. Missing tier, loop and remaining HP become
// model.Unset; missing damage becomes 0 (a crash).
func (f fields) record() model.RaidEventRecord {
	return model.RaidEventRecord{
		UpstreamID:     f.str("id"),
		Guild:          f.str("guild"),
		Season:         f.str("season"),
		DisplayName:    f.displayName(),
		UserID:         f.str("userid"),
		Name:           f.str("name"),
		EncounterID:    f.intOr("encounterid", 0),
		EncounterIndex: f.intOr("encounterindex", 0),
		Tier:           f.intOr("tier", model.Unset),
		Set:            f.intOr("set", 0),
		Rarity:         f.str("rarity"),
		DamageType:     f.str("damagetype"),
		DamageDealt:    f.floatOr("damagedealt", 0),
		RemainingHP:    f.floatOr("remaininghp", model.Unset),
		EnemyHP:        f.floatOr("enemyhp", 0),
		EnemyHPLeft:    f.floatOr("enemyhpleft", 0),
		LoopIndex:      f.intOr("loopindex", model.Unset),
		StartedOn:      f.str("startedon"),
		CompletedOn:    f.str("completedon"),
		Timestamp:      f.str("timestamp"),
	}
}

// displayName falls back to the user id; API exports may only carry the id.
func (f fields) displayName() string {
	if n := f.str("displayname"); n != "" {
		return n
	}
	return f.str("userid")
}

func jsonFields(obj gjson.Result) fields {
	f := make(fields)
	obj.ForEach(func(k, v gjson.Result) bool {
		if v.Type != gjson.Null {
			f[normaliseKey(k.String())] = v.String()
		}
		return true
	})
	return f
}

// wrapperKeys are the object keys an export may carry its rows under.
var wrapperKeys = []string{"data", "records", "entries"}

// isWrappedJSON reports whether data is an object carrying the rows under one
// of wrapperKeys.
func isWrappedJSON(data []byte) bool {
	if !gjson.ValidBytes(data) {
		return false
	}
	_, ok := unwrap(gjson.ParseBytes(data))
	return ok
}

func unwrap(root gjson.Result) (gjson.Result, bool) {
	for _, k := range wrapperKeys {
		if rows := root.Get(k); rows.IsArray() {
			return rows, true
		}
	}
	return gjson.Result{}, false
}

// decodeJSON reads an array of rows, or an object wrapping one. A wrapper's
// own guild and season apply to rows that lack them.
func decodeJSON(data []byte) ([]model.RaidEventRecord, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid JSON")
	}
	root := gjson.ParseBytes(data)
	var guild, season string
	if root.IsObject() {
		rows, ok := unwrap(root)
		if !ok {
			return nil, errors.New("object without a rows array")
		}
		guild, season = root.Get("guild").String(), root.Get("season").String()
		root = rows
	}

	var out []model.RaidEventRecord
	var err error
	i := 0
	root.ForEach(func(_, v gjson.Result) bool {
		if !v.IsObject() {
			err = fmt.Errorf("element %d: expected object, got %s", i, v.Type)
			return false
		}
		r := jsonFields(v).record()
		if r.Guild == "" {
			r.Guild = guild
		}
		if r.Season == "" {
			r.Season = season
		}
		out = append(out, r)
		i++
		return true
	})
	return out, err
}

func decodeNDJSON(data []byte) ([]model.RaidEventRecord, error) {
	var out []model.RaidEventRecord
	for n, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if !gjson.ValidBytes(line) {
			return nil, fmt.Errorf("line %d: invalid JSON", n+1)
		}
		v := gjson.ParseBytes(line)
		if !v.IsObject() {
			return nil, fmt.Errorf("line %d: expected object", n+1)
		}
		out = append(out, jsonFields(v).record())
	}
	return out, nil
}

func decodeCSV(data []byte) ([]model.RaidEventRecord, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = normaliseKey(h)
	}

	var out []model.RaidEventRecord
	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		f := make(fields, len(cols))
		for i, v := range row {
			if i < len(cols) && v != "" {
				f[cols[i]] = v
			}
		}
		out = append(out, f.record())
	}
	return out, nil
}
