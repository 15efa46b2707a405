package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"gw-price-converter/internal/custom_err"
)

type style struct {
	locale language.Tag
	symbol string
	prefix bool
}

var styles = map[string]style{
	"USD": {locale: language.AmericanEnglish, symbol: "$", prefix: true},
	"GBP": {locale: language.BritishEnglish, symbol: "£", prefix: true},
	"RUB": {locale: language.Russian, symbol: "₽"},
	"AMD": {locale: language.Armenian, symbol: "֏"},
	"EUR": {locale: language.German, symbol: "€"},
	"GEL": {locale: language.Georgian, symbol: "₾"},
}

// Formatter renders whole-unit prices the way listing cards show them:
// "$7,976", "38 333 ֏", "7 976 ₽".
type Formatter struct {
	printers map[language.Tag]*message.Printer
}

func NewFormatter() *Formatter {
	f := &Formatter{printers: make(map[language.Tag]*message.Printer)}
	for _, s := range styles {
		f.printers[s.locale] = message.NewPrinter(s.locale)
	}
	f.printers[language.AmericanEnglish] = message.NewPrinter(language.AmericanEnglish)
	return f
}

func (f *Formatter) Format(amount float64, code string) (string, error) {
	const op = "format.Format"

	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "", fmt.Errorf("%s: %w: %v", op, custom_err.ErrInvalidAmount, amount)
	}

	code = strings.ToUpper(code)
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %s", op, custom_err.ErrInvalidCurrency, code)
	}

	s, ok := styles[code]
	if !ok {
		s = style{locale: language.AmericanEnglish, symbol: unit.String()}
	}

	whole := decimal.NewFromFloat(amount).Round(0).IntPart()
	number := f.printers[s.locale].Sprintf("%d", whole)

	if s.prefix {
		if whole < 0 {
			return "-" + s.symbol + strings.TrimPrefix(number, "-"), nil
		}
		return s.symbol + number, nil
	}
	return number + " " + s.symbol, nil
}
