package http

import (
	"fmt"
	"math"

	"budgetboard/internal/core"
)

// Chart geometry for the SVG templates. Coordinates are in viewBox units.
const (
	barChartWidth   = 720
	barChartHeight  = 260
	barChartPadding = 40
	radialSize      = 260
	radialRingWidth = 14
	radialRingGap   = 6
	radialMaxRings  = 6
)

type chartTick struct {
	Y     float64
	Label string
}

type monthBar struct {
	Label      string
	X, Width   float64
	Y, Height  float64
	LabelX     float64
	Over       bool
	Cumulative string
	Spent      string
}

// BarChart plots cumulative spend per month against the budget line.
type BarChart struct {
	Width, Height float64
	Baseline      float64
	BudgetY       float64
	HasBudget     bool
	Bars          []monthBar
	Ticks         []chartTick
}

func scaleTop(rep core.MonthlyReport) int64 {
	top := rep.Budget.Cents
	if rep.Spent.Cents > top {
		top = rep.Spent.Cents
	}
	return top
}

func buildBarChart(rep core.MonthlyReport) BarChart {
	c := BarChart{
		Width:    barChartWidth,
		Height:   barChartHeight,
		Baseline: barChartHeight - barChartPadding/2,
	}
	plotH := c.Baseline - barChartPadding/2
	top := scaleTop(rep)
	y := func(cents int64) float64 {
		if top <= 0 {
			return c.Baseline
		}
		return c.Baseline - plotH*float64(cents)/float64(top)
	}

	if rep.Budget.Cents > 0 {
		c.HasBudget = true
		c.BudgetY = y(rep.Budget.Cents)
	}
	for i := 0; i <= 4; i++ {
		v := top * int64(i) / 4
		c.Ticks = append(c.Ticks, chartTick{Y: y(v), Label: core.Money{Cents: v}.Format()})
	}

	slot := float64(barChartWidth-barChartPadding*2) / float64(len(rep.Points))
	for i, p := range rep.Points {
		x := barChartPadding*1.5 + slot*float64(i) + slot*0.15
		barTop := y(p.Cumulative.Cents)
		c.Bars = append(c.Bars, monthBar{
			Label:      p.Label,
			X:          x,
			Width:      slot * 0.7,
			Y:          barTop,
			Height:     c.Baseline - barTop,
			LabelX:     x + slot*0.35,
			Over:       p.Over,
			Cumulative: p.Cumulative.Format(),
			Spent:      p.Spent.Format(),
		})
	}
	return c
}

type radialRing struct {
	Name          string
	Color         string
	Radius        float64
	Circumference float64
	Arc           float64
	Percent       string
	Over          bool
}

// RadialChart draws one ring per category, the arc showing the share of its
// budget already spent.
type RadialChart struct {
	Size   float64
	Center float64
	Width  float64
	Rings  []radialRing
}

// buildRadialChart keeps the categories with a budget, most used first,
// up to the number of rings that fit.
func buildRadialChart(usage []core.CategoryUsage) RadialChart {
	c := RadialChart{Size: radialSize, Center: radialSize / 2, Width: radialRingWidth}
	radius := c.Center - radialRingWidth
	for _, u := range usage {
		if len(c.Rings) == radialMaxRings || radius < radialRingWidth {
			break
		}
		if u.Budgeted.Cents <= 0 {
			continue
		}
		circ := 2 * math.Pi * radius
		share := math.Min(u.Percent, 100) / 100
		c.Rings = append(c.Rings, radialRing{
			Name:          u.Name,
			Color:         u.Color,
			Radius:        radius,
			Circumference: circ,
			Arc:           circ * share,
			Percent:       fmt.Sprintf("%.1f%%", u.Percent),
			Over:          u.Percent > 100,
		})
		radius -= radialRingWidth + radialRingGap
	}
	return c
}
