// Command example demonstrates pkg/geosearch's façade over a
// pkg/kdindex backend using a small, named set of US cities.
package main

import (
	"fmt"
	"log"
	"math"
	"sort"

	"github.com/kass/sphere-kdindex/pkg/geosearch"
	"github.com/kass/sphere-kdindex/pkg/kdindex"
	"github.com/kass/sphere-kdindex/pkg/models"
)

func degToRad(d float64) float64 { return d * math.Pi / 180 }

func main() {
	cityNames := map[uint64]string{
		1: "NYC", 2: "LAX", 3: "CHI", 4: "HOU", 5: "PHX",
		6: "PHL", 7: "SAT", 8: "SDG", 9: "DAL", 10: "SJC",
		11: "AUS", 12: "JAX", 13: "SFO", 14: "CLB", 15: "CLT",
	}
	cityCoords := map[uint64][2]float64{
		1:  {40.7128, -74.0060},
		2:  {34.0522, -118.2437},
		3:  {41.8781, -87.6298},
		4:  {29.7604, -95.3698},
		5:  {33.4484, -112.0740},
		6:  {39.9526, -75.1652},
		7:  {29.4241, -98.4936},
		8:  {32.7157, -117.1611},
		9:  {32.7767, -96.7970},
		10: {37.3382, -121.8863},
		11: {30.2672, -97.7431},
		12: {30.3322, -81.6557},
		13: {37.7749, -122.4194},
		14: {39.9612, -82.9988},
		15: {35.2271, -80.8431},
	}

	cities := make([]models.Point, 0, len(cityCoords))
	for id, coord := range cityCoords {
		cities = append(cities, models.Point{ID: id, Lat: degToRad(coord[0]), Lon: degToRad(coord[1])})
	}

	tree, err := kdindex.New(cities, 4, 6371.0)
	if err != nil {
		log.Fatal(err)
	}
	index := geosearch.KDTree{Tree: tree}
	fmt.Printf("Indexed %d cities\n\n", tree.Len())

	fmt.Println("=== Cities in California (Bounding Box) ===")
	cornerW := models.Point{Lat: degToRad(32.5), Lon: degToRad(-124.5)}
	cornerE := models.Point{Lat: degToRad(42.0), Lon: degToRad(-114.0)}
	ids := index.SearchByBox(cornerW, cornerE)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fmt.Printf("Found %d cities in California:\n", len(ids))
	for _, id := range ids {
		c := cityCoords[id]
		fmt.Printf("  - %s: (%.4f, %.4f)\n", cityNames[id], c[0], c[1])
	}

	fmt.Println("\n=== Cities within 500km of Dallas ===")
	dallas := models.Point{Lat: degToRad(32.7767), Lon: degToRad(-96.7970)}
	rows := index.SearchByDistance(dallas, 500)
	sort.Slice(rows, func(i, j int) bool { return rows[i].DistanceKm < rows[j].DistanceKm })
	fmt.Printf("Found %d cities within 500km of Dallas:\n", len(rows))
	for _, r := range rows {
		fmt.Printf("  - %s: %.1f km away\n", cityNames[r.ID], r.DistanceKm)
	}

	fmt.Println("\n=== Saving Index ===")
	if err := tree.SaveToFile("cities.gob", 4); err != nil {
		log.Fatal(err)
	}
	fmt.Println("Index saved to cities.gob")

	fmt.Println("\n=== Loading Index ===")
	loaded, err := kdindex.LoadFromFile("cities.gob")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Loaded index with %d points\n", loaded.Len())
}
