package domain

// CardType is the unit class printed on a battle card.
type CardType string

const (
	CardTypeInfantry CardType = "infantry"
	CardTypeRanged   CardType = "ranged"
	CardTypeMagic    CardType = "magic"
	CardTypeSiege    CardType = "siege"
)

// PowerLabel is the strength printed on a battle card.
type PowerLabel string

const (
	PowerCommander PowerLabel = "commander"
	PowerGeneral   PowerLabel = "general"
	PowerHero      PowerLabel = "hero"
	PowerAceUnit   PowerLabel = "ace_unit"
)

// CardTypes lists every card type in canonical deck order.
var CardTypes = [...]CardType{CardTypeInfantry, CardTypeRanged, CardTypeMagic, CardTypeSiege}

// PowerLabels lists every power label in canonical deck order.
var PowerLabels = [...]PowerLabel{
	"2", "3", "4", "5", "6", "7", "8", "9", "10",
	PowerCommander, PowerGeneral, PowerHero, PowerAceUnit,
}

// Card is a single battle card. ID is derived from power and type and is
// unique within a deck.
type Card struct {
	Type  CardType   `json:"card_type"`
	Power PowerLabel `json:"power"`
	ID    string     `json:"id"`
}

// NewCard builds the card for the given type and power label.
func NewCard(cardType CardType, power PowerLabel) Card {
	return Card{
		Type:  cardType,
		Power: power,
		ID:    cardID(cardType, power),
	}
}

func cardID(cardType CardType, power PowerLabel) string {
	return string(power) + "_type_" + string(cardType)
}

// Value returns the base value of a power label and whether it is an ace.
// ok is false for labels that are not part of the deck.
func (p PowerLabel) Value() (value uint8, ace bool, ok bool) {
	switch p {
	case PowerAceUnit:
		return 11, true, true
	case PowerCommander, PowerGeneral, PowerHero:
		return 10, false, true
	case "2", "3", "4", "5", "6", "7", "8", "9":
		return p[0] - '0', false, true
	case "10":
		return 10, false, true
	}
	return 0, false, false
}

// Valid reports whether the card is one of the 52 deck cards and its ID
// matches its type and power.
func (c Card) Valid() bool {
	if _, _, ok := c.Power.Value(); !ok {
		return false
	}
	switch c.Type {
	case CardTypeInfantry, CardTypeRanged, CardTypeMagic, CardTypeSiege:
	default:
		return false
	}
	return c.ID == cardID(c.Type, c.Power)
}
