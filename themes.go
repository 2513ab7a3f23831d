package main

import (
	"math/rand"
)

// themeCatalog is the built-in round themes. Hosts can always override these
// with a custom one.
var themeCatalog = []Theme{
	{Title: "Temperature", Low: "freezing", High: "scorching"},
	{Title: "Popularity of a pizza topping", Low: "nobody orders it", High: "on every menu"},
	{Title: "Scariness of an animal", Low: "harmless", High: "terrifying"},
	{Title: "Usefulness of a superpower", Low: "useless", High: "world-changing"},
	{Title: "Loudness of a sound", Low: "silent", High: "deafening"},
	{Title: "Importance of an invention", Low: "pointless", High: "essential"},
	{Title: "Difficulty of a job", Low: "anyone could do it", High: "nearly impossible"},
	{Title: "Deliciousness of a snack", Low: "inedible", High: "irresistible"},
	{Title: "Fame of a movie", Low: "never heard of it", High: "everyone has seen it"},
	{Title: "Speed of an animal", Low: "glacial", High: "lightning fast"},
	{Title: "Fun at a party", Low: "dreadful", High: "unforgettable"},
	{Title: "Coldness of a place", Low: "tropical", High: "arctic"},
}

// randomTheme picks one catalog entry with replacement; back-to-back repeats
// are fine.
func randomTheme(rng *rand.Rand) Theme {
	if rng != nil {
		return themeCatalog[rng.Intn(len(themeCatalog))]
	}
	return themeCatalog[rand.Intn(len(themeCatalog))]
}

// customTheme builds a theme verbatim from host-supplied labels.
func customTheme(title, low, high string) Theme {
	return Theme{
		Title: title,
		Low:   low,
		High:  high,
	}
}
