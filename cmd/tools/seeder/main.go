package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	shirtTypes := seedShirtTypes(db)
	seedPacks(db, shirtTypes)
	seedPatches(db)
	seedPricingConfigs(db)

	log.Println("Seeding completed successfully!")
}

func seedShirtTypes(db *sql.DB) map[string]int64 {
	shirtTypes := []struct {
		Name      string
		Price     string
		CostPrice string
	}{
		{"Retro", "20.00", "9.00"},
		{"Current season", "25.00", "11.50"},
		{"Kids", "16.00", "7.00"},
	}

	fmt.Println("Seeding Shirt Types...")
	ids := map[string]int64{}
	for _, st := range shirtTypes {
		var id int64
		err := db.QueryRow(`SELECT id FROM shirt_types WHERE name = $1`, st.Name).Scan(&id)
		switch {
		case err == sql.ErrNoRows:
			err = db.QueryRow(`
				INSERT INTO shirt_types (name, price, cost_price)
				VALUES ($1, $2, $3)
				RETURNING id
			`, st.Name, st.Price, st.CostPrice).Scan(&id)
		case err == nil:
			_, err = db.Exec(`UPDATE shirt_types SET price = $2, cost_price = $3 WHERE id = $1`, id, st.Price, st.CostPrice)
		}
		if err != nil {
			log.Fatalf("Failed to seed shirt type %s: %v", st.Name, err)
		}
		ids[st.Name] = id
	}
	return ids
}

func seedPacks(db *sql.DB, shirtTypes map[string]int64) {
	packs := []struct {
		Name      string
		ShirtType string
		Threshold int
		Price     string
		CostPrice string
	}{
		{"Retro x3", "Retro", 3, "17.00", "8.00"},
		{"Retro x10", "Retro", 10, "15.00", "7.50"},
		{"Current season x5", "Current season", 5, "21.00", "10.00"},
	}

	fmt.Println("Seeding Packs...")
	for _, p := range packs {
		var id int64
		err := db.QueryRow(`SELECT id FROM packs WHERE name = $1`, p.Name).Scan(&id)
		if err == sql.ErrNoRows {
			err = db.QueryRow(`
				INSERT INTO packs (name, price, cost_price)
				VALUES ($1, $2, $3)
				RETURNING id
			`, p.Name, p.Price, p.CostPrice).Scan(&id)
		}
		if err != nil {
			log.Fatalf("Failed to seed pack %s: %v", p.Name, err)
		}

		if _, err := db.Exec(`DELETE FROM pack_items WHERE pack_id = $1`, id); err != nil {
			log.Fatalf("Failed to reset items of pack %s: %v", p.Name, err)
		}
		_, err = db.Exec(`
			INSERT INTO pack_items (pack_id, product_type, shirt_type_id, quantity)
			VALUES ($1, 'tshirt', $2, $3)
		`, id, shirtTypes[p.ShirtType], p.Threshold)
		if err != nil {
			log.Fatalf("Failed to seed items of pack %s: %v", p.Name, err)
		}
	}
}

func seedPatches(db *sql.DB) {
	patches := []struct {
		Name      string
		Image     string
		Price     string
		CostPrice string
		Units     int
	}{
		{"League badge", "patches/liga.png", "1.50", "0.40", 1},
		{"Champions badge", "patches/champions.png", "2.50", "0.60", 1},
		{"Sleeve pair", "patches/sleeves.png", "1.00", "0.30", 2},
	}

	fmt.Println("Seeding Patches...")
	for _, p := range patches {
		_, err := db.Exec(`
			INSERT INTO patches (name, image, price, cost_price, units, active)
			VALUES ($1, $2, $3, $4, $5, TRUE)
			ON CONFLICT (image) DO UPDATE SET
				name = EXCLUDED.name,
				price = EXCLUDED.price,
				cost_price = EXCLUDED.cost_price,
				units = EXCLUDED.units
		`, p.Name, p.Image, p.Price, p.CostPrice, p.Units)
		if err != nil {
			log.Fatalf("Failed to seed patch %s: %v", p.Image, err)
		}
	}
}

func seedPricingConfigs(db *sql.DB) {
	configs := []struct {
		Key       string
		Price     string
		CostPrice string
	}{
		{"personalization_price", "3.00", "1.00"},
		{"patch_price", "1.00", "0.30"},
	}

	fmt.Println("Seeding Pricing Configs...")
	for _, c := range configs {
		_, err := db.Exec(`
			INSERT INTO pricing_configs (key, price, cost_price)
			VALUES ($1, $2, $3)
			ON CONFLICT (key) DO UPDATE SET
				price = EXCLUDED.price,
				cost_price = EXCLUDED.cost_price,
				updated_at = now()
		`, c.Key, c.Price, c.CostPrice)
		if err != nil {
			log.Fatalf("Failed to seed pricing config %s: %v", c.Key, err)
		}
	}
}
