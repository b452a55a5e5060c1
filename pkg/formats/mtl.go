// MTL (Wavefront material library) format parser.
package formats

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// RawMaterial holds the material properties kept from an MTL file.
// Everything except diffuse color and the diffuse/normal textures is discarded.
type RawMaterial struct {
	Name           string
	Diffuse        [3]float32
	DiffuseTexture string // empty when absent
	NormalTexture  string // empty when absent
}

// textureOptionArity is the fixed argument count of texture map options.
// Options missing here take a variable 1-3 numeric arguments.
var textureOptionArity = map[string]int{
	"-blendu":  1,
	"-blendv":  1,
	"-bm":      1,
	"-boost":   1,
	"-cc":      1,
	"-clamp":   1,
	"-imfchan": 1,
	"-mm":      2,
	"-texres":  1,
	"-type":    1,
}

// DecodeMTL parses MTL data into materials in file order.
func DecodeMTL(data []byte) ([]RawMaterial, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 16*1024), len(data)+1)

	var (
		materials []RawMaterial
		cur       *RawMaterial
		line      int
	)
	errorf := func(format string, args ...any) error {
		return &SyntaxError{File: SourceMTL, Line: line, Err: fmt.Errorf(format, args...)}
	}

	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		fields := strings.Fields(text)
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		key := fields[0]
		if key == "newmtl" {
			name := strings.TrimSpace(strings.TrimPrefix(text, key))
			if name == "" {
				return nil, errorf("%w: newmtl", ErrEmptyDirective)
			}
			materials = append(materials, RawMaterial{Name: name, Diffuse: [3]float32{1, 1, 1}})
			cur = &materials[len(materials)-1]
			continue
		}

		switch key {
		case "Kd", "map_Kd", "norm", "map_Bump", "map_bump", "bump":
		default:
			// Ka, Ks, Ns, d, Tr, illum, ... are not kept
			continue
		}
		if cur == nil {
			return nil, errorf("%w: %s", ErrNoMaterial, key)
		}

		switch key {
		case "Kd":
			if len(fields) < 4 {
				return nil, errorf("%w: Kd wants 3 components", ErrMissingFields)
			}
			for i, f := range fields[1:4] {
				val, err := strconv.ParseFloat(f, 32)
				if err != nil {
					return nil, errorf("%w %q", ErrInvalidNumber, f)
				}
				cur.Diffuse[i] = float32(val)
			}
		case "map_Kd":
			path, err := textureMapPath(strings.TrimPrefix(text, key))
			if err != nil {
				return nil, errorf("%w", err)
			}
			cur.DiffuseTexture = path
		default:
			path, err := textureMapPath(strings.TrimPrefix(text, key))
			if err != nil {
				return nil, errorf("%w", err)
			}
			cur.NormalTexture = path
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errorf("%v", err)
	}

	return materials, nil
}

// textureMapPath skips texture map options in the rest of a map line and
// returns the file name with its inner whitespace untouched.
func textureMapPath(rest string) (string, error) {
	rest = strings.TrimSpace(rest)
	for {
		opt, after := nextField(rest)
		if !strings.HasPrefix(opt, "-") || isNumber(opt) {
			break
		}
		rest = after
		if n, ok := textureOptionArity[opt]; ok {
			for j := 0; j < n; j++ {
				_, rest = nextField(rest)
			}
			continue
		}
		// -o, -s, -t: u [v [w]]
		for j := 0; j < 3; j++ {
			arg, after := nextField(rest)
			if arg == "" || !isNumber(arg) {
				break
			}
			rest = after
		}
	}
	if rest == "" {
		return "", fmt.Errorf("%w: texture map without file name", ErrEmptyDirective)
	}
	return rest, nil
}

// nextField splits the first whitespace-separated field off s. The
// remainder has its leading whitespace trimmed.
func nextField(s string) (field, rest string) {
	s = strings.TrimLeft(s, " \t")
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeft(s[i:], " \t")
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
