package engine

import "github.com/shopspring/decimal"

// SizeQty переводит сумму котировочного актива в количество базового:
// amount/price, вниз к шагу количества, затем округление до 8 знаков.
// Десятичная арифметика гарантирует точную кратность шагу
// (0.3, а не 0.300000000000004).
func SizeQty(amount, price, step float64) float64 {
	if amount <= 0 || price <= 0 {
		return 0
	}

	qty := decimal.NewFromFloat(amount).Div(decimal.NewFromFloat(price))
	if step > 0 {
		stepDec := decimal.NewFromFloat(step)
		qty = qty.Div(stepDec).Floor().Mul(stepDec)
	}

	result, _ := qty.Round(8).Float64()
	return result
}

// FloorToStep приводит произвольное количество вниз к шагу.
func FloorToStep(qty, step float64) float64 {
	if step <= 0 {
		return qty
	}
	stepDec := decimal.NewFromFloat(step)
	result, _ := decimal.NewFromFloat(qty).Div(stepDec).Floor().Mul(stepDec).Round(8).Float64()
	return result
}
