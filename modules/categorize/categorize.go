package categorize

import (
	"strings"

	"outfitly-server/modules/common/model"
)

// roleKeywords - 역할별 키워드 목록. 순서가 곧 우선순위다.
// 의류(top > bottom > one-piece)가 악세사리보다 먼저 검사된다.
// "jacket" 같은 단어는 여러 목록에 걸칠 수 있으므로 첫 매칭이 승리 (first-match-wins).
var roleKeywords = []struct {
	role     model.CompositionRole
	keywords []string
}{
	{model.RoleTop, []string{
		"shirt", "t-shirt", "tee", "blouse", "sweater", "hoodie", "jacket",
		"coat", "cardigan", "knit", "pullover", "top", "vest", "blazer", "turtleneck",
	}},
	{model.RoleBottom, []string{
		"pants", "jeans", "trousers", "skirt", "shorts", "slacks", "leggings",
		"chinos", "joggers", "bottom",
	}},
	{model.RoleOnePiece, []string{
		"dress", "jumpsuit", "gown", "overalls", "one-piece", "onepiece", "romper",
	}},
	{model.RoleAccessoryHat, []string{
		"hat", "cap", "beanie", "beret", "fedora",
	}},
	{model.RoleAccessoryShoe, []string{
		"shoe", "sneaker", "boot", "heel", "loafer", "sandal", "footwear", "oxford",
	}},
	{model.RoleAccessoryOther, []string{
		"bag", "scarf", "belt", "glasses", "sunglasses", "necklace", "watch",
		"jewelry", "earring", "bracelet", "ring", "tie", "gloves", "purse", "backpack",
	}},
}

// Classify - 아이템 설명 텍스트를 합성 역할로 분류
// 순수 함수. 에러 없음. 매칭되는 키워드가 없으면 Top으로 처리.
func Classify(description string) model.CompositionRole {
	lowered := strings.ToLower(description)

	for _, entry := range roleKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(lowered, keyword) {
				return entry.role
			}
		}
	}

	return model.RoleTop
}
