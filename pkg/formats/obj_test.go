package formats

import (
	"context"
	"errors"
	"testing"
)

const quadOBJ = `# single quad
o quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
f 1/1 2/2 3/3 4/4
`

func decode(t *testing.T, src string, opts DecodeOptions) *OBJ {
	t.Helper()
	obj, err := DecodeOBJ(context.Background(), []byte(src), opts)
	if err != nil {
		t.Fatalf("DecodeOBJ: %v", err)
	}
	return obj
}

func TestDecodeOBJ_TriangulatesQuad(t *testing.T) {
	obj := decode(t, quadOBJ, DecodeOptions{})

	if len(obj.Models) != 1 {
		t.Fatalf("expected 1 model, got %d", len(obj.Models))
	}
	m := obj.Models[0]
	if m.Name != "quad" {
		t.Errorf("expected name 'quad', got %q", m.Name)
	}
	if m.VertexCount() != 4 {
		t.Errorf("expected 4 merged vertices, got %d", m.VertexCount())
	}
	want := []uint32{0, 1, 2, 0, 2, 3}
	if len(m.Indices) != len(want) {
		t.Fatalf("expected %d indices, got %d", len(want), len(m.Indices))
	}
	for i := range want {
		if m.Indices[i] != want[i] {
			t.Errorf("index %d: expected %d, got %d", i, want[i], m.Indices[i])
		}
	}
	if len(m.TexCoords) != 8 {
		t.Errorf("expected 8 texcoord floats, got %d", len(m.TexCoords))
	}
	if len(m.Normals) != 0 {
		t.Errorf("expected no normals, got %d floats", len(m.Normals))
	}
}

func TestDecodeOBJ_MergesIdenticalVertices(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
v 1 1 0
vn 0 0 1
f 1//1 2//1 3//1
f 3//1 2//1 4//1
`
	obj := decode(t, src, DecodeOptions{})
	m := obj.Models[0]
	if m.VertexCount() != 4 {
		t.Errorf("expected 4 vertices after merging, got %d", m.VertexCount())
	}
	if len(m.Normals) != m.VertexCount()*3 {
		t.Errorf("normal floats %d do not match vertex count %d", len(m.Normals), m.VertexCount())
	}
	if m.Name != "unnamed_object" {
		t.Errorf("expected default model name, got %q", m.Name)
	}
}

func TestDecodeOBJ_DistinctAttributesSplitVertices(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vt 1 1
f 1/1 2/1 3/1
f 1/2 2/2 3/2
`
	obj := decode(t, src, DecodeOptions{})
	if got := obj.Models[0].VertexCount(); got != 6 {
		t.Errorf("expected 6 vertices, got %d", got)
	}
}

func TestDecodeOBJ_NegativeIndices(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
f -3 -2 -1
`
	obj := decode(t, src, DecodeOptions{})
	m := obj.Models[0]
	if m.Positions[3] != 1 || m.Positions[7] != 1 {
		t.Errorf("unexpected positions %v", m.Positions)
	}
}

func TestDecodeOBJ_IgnoresLinesAndPoints(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
l 1 2
p 3
s off
f 1 2 3
`
	obj := decode(t, src, DecodeOptions{})
	if len(obj.Models) != 1 || len(obj.Models[0].Indices) != 3 {
		t.Fatalf("expected a single triangle, got %+v", obj.Models)
	}
}

func TestDecodeOBJ_LineContinuation(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 \\\n 3\n"
	obj := decode(t, src, DecodeOptions{})
	if len(obj.Models[0].Indices) != 3 {
		t.Errorf("expected continued face to yield 3 indices, got %d", len(obj.Models[0].Indices))
	}
}

func TestDecodeOBJ_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr error
		line    int
	}{
		{"two vertex face", "v 0 0 0\nv 1 0 0\nf 1 2\n", ErrFaceTooSmall, 3},
		{"zero index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n", ErrZeroIndex, 4},
		{"out of range", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 9\n", ErrIndexRange, 4},
		{"bad float", "v 0 zero 0\n", ErrInvalidNumber, 1},
		{"short vertex", "v 0 0\n", ErrMissingFields, 1},
		{"bad face index", "v 0 0 0\nf a b c\n", ErrInvalidNumber, 2},
		{"empty usemtl", "usemtl\n", ErrEmptyDirective, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeOBJ(context.Background(), []byte(tt.src), DecodeOptions{})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("expected *SyntaxError, got %T", err)
			}
			if se.Line != tt.line {
				t.Errorf("expected line %d, got %d", tt.line, se.Line)
			}
			if se.File != SourceOBJ {
				t.Errorf("expected file %q, got %q", SourceOBJ, se.File)
			}
		})
	}
}

func TestDecodeOBJ_MaterialLibrary(t *testing.T) {
	src := `mtllib my materials.mtl
o a
v 0 0 0
v 1 0 0
v 0 1 0
usemtl red
f 1 2 3
usemtl blue
f 1 3 2
o b
usemtl missing
f 1 2 3
`
	mtl := `newmtl blue
Kd 0 0 1
newmtl red
Kd 1 0 0
`
	var requested []string
	obj := decode(t, src, DecodeOptions{
		LoadLibrary: func(_ context.Context, name string) ([]byte, error) {
			requested = append(requested, name)
			return []byte(mtl), nil
		},
	})

	if len(requested) != 1 || requested[0] != "my materials.mtl" {
		t.Fatalf("unexpected library requests %v", requested)
	}
	if obj.MaterialsErr != nil {
		t.Fatalf("unexpected materials error: %v", obj.MaterialsErr)
	}
	if len(obj.Models) != 3 {
		t.Fatalf("expected usemtl to split into 3 models, got %d", len(obj.Models))
	}

	tests := []struct {
		name   string
		hasMat bool
		id     int
	}{
		{"a", true, 1},
		{"a", true, 0},
		{"b", false, 0},
	}
	for i, tt := range tests {
		m := obj.Models[i]
		if m.Name != tt.name || m.HasMaterial != tt.hasMat || m.MaterialID != tt.id {
			t.Errorf("model %d: got name=%q hasMat=%v id=%d, want %q %v %d",
				i, m.Name, m.HasMaterial, m.MaterialID, tt.name, tt.hasMat, tt.id)
		}
	}
}

func TestDecodeOBJ_LibraryFailureKeepsGeometry(t *testing.T) {
	src := "mtllib gone.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl x\nf 1 2 3\n"
	boom := errors.New("not found")

	obj := decode(t, src, DecodeOptions{
		LoadLibrary: func(context.Context, string) ([]byte, error) { return nil, boom },
	})

	var le *LibraryError
	if !errors.As(obj.MaterialsErr, &le) {
		t.Fatalf("expected *LibraryError, got %v", obj.MaterialsErr)
	}
	if le.Name != "gone.mtl" || !errors.Is(obj.MaterialsErr, boom) {
		t.Errorf("unexpected library error %v", le)
	}
	if len(obj.Models) != 1 || obj.Models[0].HasMaterial {
		t.Errorf("expected geometry without material, got %+v", obj.Models)
	}
}

func TestDecodeOBJ_LibrarySyntaxError(t *testing.T) {
	src := "mtllib bad.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"
	obj := decode(t, src, DecodeOptions{
		LoadLibrary: func(context.Context, string) ([]byte, error) {
			return []byte("newmtl m\nKd 1 x 0\n"), nil
		},
	})

	var se *SyntaxError
	if !errors.As(obj.MaterialsErr, &se) {
		t.Fatalf("expected *SyntaxError, got %v", obj.MaterialsErr)
	}
	if se.File != "bad.mtl" || se.Line != 2 {
		t.Errorf("unexpected error position %s:%d", se.File, se.Line)
	}
}

func TestDecodeOBJ_NoLoaderIgnoresLibraries(t *testing.T) {
	src := "mtllib a.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl m\nf 1 2 3\n"
	obj := decode(t, src, DecodeOptions{})
	if obj.MaterialsErr != nil || len(obj.Materials) != 0 {
		t.Errorf("expected no materials, got %v %v", obj.Materials, obj.MaterialsErr)
	}
	if len(obj.Libraries) != 1 || obj.Libraries[0] != "a.mtl" {
		t.Errorf("expected library name recorded, got %v", obj.Libraries)
	}
}

func TestDecodeOBJ_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := DecodeOBJ(ctx, []byte(quadOBJ), DecodeOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDecodeOBJ_DropsEmptyModels(t *testing.T) {
	src := "o empty\no full\nv 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"
	obj := decode(t, src, DecodeOptions{})
	if len(obj.Models) != 1 || obj.Models[0].Name != "full" {
		t.Errorf("expected only 'full', got %+v", obj.Models)
	}
}
