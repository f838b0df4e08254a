package outfit

import (
	"context"
	"encoding/base64"
	"fmt"

	"outfitly-server/modules/common/model"
	"outfitly-server/modules/composer"
)

// compositionAPI - composer.Client를 Sequencer가 쓰는 계약에 맞춘 어댑터
type compositionAPI struct {
	client *composer.Client
}

func NewCompositionAPI(client *composer.Client) Composer {
	return &compositionAPI{client: client}
}

func (a *compositionAPI) CreateBaseModel(ctx context.Context, prompt string) (*model.CompositionJob, error) {
	return a.client.Compose(ctx, "", composer.SubmitRequest{Prompt: prompt})
}

func (a *compositionAPI) ApplyGarment(ctx context.Context, baseImage, garmentImage []byte, role model.CompositionRole) (*model.CompositionJob, error) {
	return a.client.Compose(ctx, role, composer.SubmitRequest{
		Prompt:       garmentPrompt(role),
		BaseImage:    base64.StdEncoding.EncodeToString(baseImage),
		GarmentImage: base64.StdEncoding.EncodeToString(garmentImage),
	})
}

// garmentPrompt - 역할별 합성 지시문
func garmentPrompt(role model.CompositionRole) string {
	switch role {
	case model.RoleTop:
		return "Dress the model in the provided top, keeping pose and identity unchanged."
	case model.RoleBottom:
		return "Dress the model in the provided bottoms, keeping pose and identity unchanged."
	case model.RoleOnePiece:
		return "Dress the model in the provided one-piece garment, keeping pose and identity unchanged."
	case model.RoleAccessoryHat:
		return "Place the provided headwear on the model naturally."
	case model.RoleAccessoryShoe:
		return "Put the provided footwear on the model naturally."
	default:
		return fmt.Sprintf("Add the provided %s accessory to the model naturally.", role)
	}
}
