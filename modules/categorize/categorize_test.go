package categorize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"outfitly-server/modules/common/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        model.CompositionRole
	}{
		{
			name:        "plain top",
			description: "A white cotton t-shirt with a crew neck",
			want:        model.RoleTop,
		},
		{
			name:        "plain bottom",
			description: "Dark wash slim-fit jeans",
			want:        model.RoleBottom,
		},
		{
			name:        "one piece",
			description: "A floral summer dress with short sleeves",
			want:        model.RoleOnePiece,
		},
		{
			name:        "hat",
			description: "A navy baseball cap",
			want:        model.RoleAccessoryHat,
		},
		{
			name:        "shoes",
			description: "White leather sneakers with gum soles",
			want:        model.RoleAccessoryShoe,
		},
		{
			name:        "other accessory",
			description: "A brown leather belt with brass buckle",
			want:        model.RoleAccessoryOther,
		},
		{
			name:        "no keyword defaults to top",
			description: "A stylish piece in muted earth tones",
			want:        model.RoleTop,
		},
		{
			name:        "empty description defaults to top",
			description: "",
			want:        model.RoleTop,
		},
		{
			name:        "top keyword wins over bottom keyword",
			description: "A denim jacket paired with matching jeans",
			want:        model.RoleTop,
		},
		{
			name:        "clothing wins over accessory",
			description: "A wool sweater with a matching scarf",
			want:        model.RoleTop,
		},
		{
			name:        "bottom wins over one piece",
			description: "A pleated skirt styled like a dress",
			want:        model.RoleBottom,
		},
		{
			name:        "case insensitive",
			description: "VINTAGE LEATHER BOOTS",
			want:        model.RoleAccessoryShoe,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.description))
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	// 같은 입력은 항상 같은 결과
	desc := "A jacket over a skirt with boots and a hat"
	first := Classify(desc)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(desc))
	}
	assert.Equal(t, model.RoleTop, first)
}
