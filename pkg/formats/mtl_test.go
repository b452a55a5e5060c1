package formats

import (
	"errors"
	"testing"
)

func TestDecodeMTL_Basic(t *testing.T) {
	src := `# exported
newmtl Wood Floor
Ka 0.2 0.2 0.2
Kd 0.5 0.25 0.125
Ks 1 1 1
Ns 10
illum 2
map_Kd -s 2 2 1 -bm 0.5 textures/wood floor.png
map_Bump -bm 1.0 textures\wood_n.tga

newmtl plain
`
	mats, err := DecodeMTL([]byte(src))
	if err != nil {
		t.Fatalf("DecodeMTL: %v", err)
	}
	if len(mats) != 2 {
		t.Fatalf("expected 2 materials, got %d", len(mats))
	}

	wood := mats[0]
	if wood.Name != "Wood Floor" {
		t.Errorf("expected name 'Wood Floor', got %q", wood.Name)
	}
	if wood.Diffuse != [3]float32{0.5, 0.25, 0.125} {
		t.Errorf("unexpected diffuse %v", wood.Diffuse)
	}
	if wood.DiffuseTexture != "textures/wood floor.png" {
		t.Errorf("unexpected diffuse texture %q", wood.DiffuseTexture)
	}
	if wood.NormalTexture != `textures\wood_n.tga` {
		t.Errorf("unexpected normal texture %q", wood.NormalTexture)
	}

	plain := mats[1]
	if plain.Diffuse != [3]float32{1, 1, 1} {
		t.Errorf("expected default white diffuse, got %v", plain.Diffuse)
	}
	if plain.DiffuseTexture != "" || plain.NormalTexture != "" {
		t.Errorf("expected no textures, got %q %q", plain.DiffuseTexture, plain.NormalTexture)
	}
}

func TestDecodeMTL_NormalMapKeys(t *testing.T) {
	for _, key := range []string{"norm", "map_Bump", "map_bump", "bump"} {
		t.Run(key, func(t *testing.T) {
			mats, err := DecodeMTL([]byte("newmtl m\n" + key + " n.png\n"))
			if err != nil {
				t.Fatalf("DecodeMTL: %v", err)
			}
			if mats[0].NormalTexture != "n.png" {
				t.Errorf("expected n.png, got %q", mats[0].NormalTexture)
			}
		})
	}
}

func TestDecodeMTL_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr error
	}{
		{"property before newmtl", "Kd 1 1 1\n", ErrNoMaterial},
		{"short Kd", "newmtl m\nKd 1 1\n", ErrMissingFields},
		{"bad Kd", "newmtl m\nKd 1 one 1\n", ErrInvalidNumber},
		{"map without file", "newmtl m\nmap_Kd -bm 1\n", ErrEmptyDirective},
		{"anonymous material", "newmtl\n", ErrEmptyDirective},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeMTL([]byte(tt.src))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDecodeMTL_IgnoresUnknownBeforeNewmtl(t *testing.T) {
	mats, err := DecodeMTL([]byte("Ns 10\nillum 2\nnewmtl m\n"))
	if err != nil {
		t.Fatalf("DecodeMTL: %v", err)
	}
	if len(mats) != 1 {
		t.Errorf("expected 1 material, got %d", len(mats))
	}
}

func TestDecodeMTL_TexturePathKeepsWhitespace(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"map_Kd my  tex.png", "my  tex.png"},
		{"map_Kd\tmy\ttex.png", "my\ttex.png"},
		{"map_Kd -clamp on  -o 0.5 0.5   my  tex.png  ", "my  tex.png"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			mats, err := DecodeMTL([]byte("newmtl m\n" + tt.line + "\n"))
			if err != nil {
				t.Fatalf("DecodeMTL: %v", err)
			}
			if mats[0].DiffuseTexture != tt.want {
				t.Errorf("expected %q, got %q", tt.want, mats[0].DiffuseTexture)
			}
		})
	}
}
