package actions

import (
	"encoding/json"
	"fmt"
)

// envelope tags the concrete action variant for JSON transport.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MarshalAction encodes an action as a type-tagged JSON envelope.
func MarshalAction(a Action) ([]byte, error) {
	if a == nil {
		return nil, fmt.Errorf("nil action")
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode %s action: %w", a.Type(), err)
	}
	return json.Marshal(envelope{Type: a.Type().String(), Data: data})
}

// UnmarshalAction decodes a type-tagged JSON envelope into the concrete
// action variant. Actions stay value types so interface comparison remains
// exact.
func UnmarshalAction(raw []byte) (Action, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode action envelope: %w", err)
	}

	var a Action
	var err error
	switch env.Type {
	case TypeNull.String():
		var v NullAction
		err = json.Unmarshal(env.Data, &v)
		a = v
	case TypeGame.String():
		var v GameAction
		err = json.Unmarshal(env.Data, &v)
		a = v
	case TypeCorrection.String():
		var v Correction
		err = json.Unmarshal(env.Data, &v)
		a = v
	case TypeTileLay.String():
		var v TileLay
		err = json.Unmarshal(env.Data, &v)
		a = v
	case TypeBaseTokenLay.String():
		var v BaseTokenLay
		err = json.Unmarshal(env.Data, &v)
		a = v
	case TypeBonusTokenLay.String():
		var v BonusTokenLay
		err = json.Unmarshal(env.Data, &v)
		a = v
	case TypeBuyBonusToken.String():
		var v BuyBonusToken
		err = json.Unmarshal(env.Data, &v)
		a = v
	case TypeSetDividend.String():
		var v SetDividend
		err = json.Unmarshal(env.Data, &v)
		a = v
	case TypeOperatingCost.String():
		var v OperatingCost
		err = json.Unmarshal(env.Data, &v)
		a = v
	case TypeBuyTrain.String():
		var v BuyTrain
		err = json.Unmarshal(env.Data, &v)
		a = v
	case TypeDiscardTrain.String():
		var v DiscardTrain
		err = json.Unmarshal(env.Data, &v)
		a = v
	case TypeBuyPrivate.String():
		var v BuyPrivate
		err = json.Unmarshal(env.Data, &v)
		a = v
	case TypeClosePrivate.String():
		var v ClosePrivate
		err = json.Unmarshal(env.Data, &v)
		a = v
	case TypeReachDestinations.String():
		var v ReachDestinations
		err = json.Unmarshal(env.Data, &v)
		a = v
	case TypeTakeLoans.String():
		var v TakeLoans
		err = json.Unmarshal(env.Data, &v)
		a = v
	case TypeRepayLoans.String():
		var v RepayLoans
		err = json.Unmarshal(env.Data, &v)
		a = v
	case TypeUseSpecialProperty.String():
		var v UseSpecialProperty
		err = json.Unmarshal(env.Data, &v)
		a = v
	case TypeBuyCertificate.String():
		var v BuyCertificate
		err = json.Unmarshal(env.Data, &v)
		a = v
	case TypeSellShares.String():
		var v SellShares
		err = json.Unmarshal(env.Data, &v)
		a = v
	case TypeStartCompany.String():
		var v StartCompany
		err = json.Unmarshal(env.Data, &v)
		a = v
	case TypeBuyStartItem.String():
		var v BuyStartItem
		err = json.Unmarshal(env.Data, &v)
		a = v
	default:
		return nil, fmt.Errorf("unknown action type %q", env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s action: %w", env.Type, err)
	}
	return a, nil
}
