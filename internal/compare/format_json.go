package compare

import (
	"encoding/json"

	"github.com/rgehrsitz/nursetax/internal/domain"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// JSONFormatter writes a comparison set followed by its take-home ranking
type JSONFormatter struct {
	Pretty bool
}

type comparisonDocument struct {
	*ComparisonSet
	Ranking []rankEntry `json:"ranking"`
}

// rankEntry is one line of the ranking, best take-home first
type rankEntry struct {
	Rank                 int             `json:"rank"`
	State                domain.State    `json:"state"`
	StateName            string          `json:"stateName"`
	IsBase               bool            `json:"isBase"`
	TakeHome             decimal.Decimal `json:"takeHome"`
	TotalTax             decimal.Decimal `json:"totalTax"`
	QuarterlyPayment     decimal.Decimal `json:"quarterlyPayment"`
	TakeHomeDiffFromBase decimal.Decimal `json:"takeHomeDiffFromBase"`
}

// Format generates JSON output for comparison results
func (jf *JSONFormatter) Format(compSet *ComparisonSet) (string, error) {
	doc := comparisonDocument{
		ComparisonSet: compSet,
		Ranking: lo.Map(compSet.Ranked(), func(r ComparisonResult, i int) rankEntry {
			return rankEntry{
				Rank:                 i + 1,
				State:                r.State,
				StateName:            r.StateName,
				IsBase:               r.State == compSet.BaseState,
				TakeHome:             r.TakeHome,
				TotalTax:             r.TotalTax,
				QuarterlyPayment:     r.QuarterlyPayment,
				TakeHomeDiffFromBase: r.TakeHomeDiffFromBase,
			}
		}),
	}

	var data []byte
	var err error
	if jf.Pretty {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
