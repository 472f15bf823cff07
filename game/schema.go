// Package game creates and seeds the supply-chain mystery database: the
// tables the scene questions run against, the scenes themselves, and the
// submissions queue the judge service drains.
package game

import (
	"time"

	"github.com/jmoiron/sqlx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		product_id INTEGER PRIMARY KEY,
		name TEXT,
		category TEXT,
		unit_price DECIMAL(10,2)
	)`,
	`CREATE TABLE IF NOT EXISTS suppliers (
		supplier_id INTEGER PRIMARY KEY,
		name TEXT,
		country TEXT,
		reliability_score INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS warehouses (
		warehouse_id INTEGER PRIMARY KEY,
		location TEXT,
		capacity INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS shipments (
		shipment_id INTEGER PRIMARY KEY,
		product_id INTEGER,
		supplier_id INTEGER,
		warehouse_id INTEGER,
		quantity INTEGER,
		shipment_date TEXT,
		received_date TEXT,
		status TEXT,
		FOREIGN KEY(product_id) REFERENCES products(product_id) ON DELETE CASCADE,
		FOREIGN KEY(supplier_id) REFERENCES suppliers(supplier_id) ON DELETE CASCADE,
		FOREIGN KEY(warehouse_id) REFERENCES warehouses(warehouse_id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS inventory (
		inventory_id INTEGER PRIMARY KEY,
		product_id INTEGER,
		warehouse_id INTEGER,
		stock INTEGER,
		last_updated TEXT,
		FOREIGN KEY(product_id) REFERENCES products(product_id) ON DELETE CASCADE,
		FOREIGN KEY(warehouse_id) REFERENCES warehouses(warehouse_id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS scenes (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		story TEXT NOT NULL,
		question TEXT NOT NULL,
		answer_sql TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS submissions (
		submission_id INTEGER PRIMARY KEY AUTOINCREMENT,
		student_id INTEGER NOT NULL,
		scene_id INTEGER NOT NULL,
		submitted_sql TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		verdict TEXT,
		feedback TEXT,
		hint_used INTEGER NOT NULL DEFAULT 0,
		submitted_at TEXT NOT NULL DEFAULT (datetime('now')),
		graded_at TEXT
	)`,
}

// Setup creates the game schema and seeds the mystery data. Seeding is
// idempotent: tables that already hold rows are left untouched.
func Setup(db *sqlx.DB) error {
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		return err
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	// The mystery timeline is anchored five days in the past.
	baseDate := time.Now().AddDate(0, 0, -5)

	if err := seedReference(db); err != nil {
		return err
	}
	if err := seedInventory(db, baseDate); err != nil {
		return err
	}
	if err := seedShipments(db, baseDate); err != nil {
		return err
	}
	return seedScenes(db)
}

func tableEmpty(db *sqlx.DB, table string) (bool, error) {
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM "+table); err != nil {
		return false, err
	}
	return count == 0, nil
}

func seedReference(db *sqlx.DB) error {
	empty, err := tableEmpty(db, "products")
	if err != nil || !empty {
		return err
	}

	products := [][]interface{}{
		{1, "Widget", "Tools", 49.99},
		{2, "Gadget", "Electronics", 149.99},
		{3, "Doodad", "Accessories", 29.99},
		{4, "Thingamajig", "Tools", 79.99},
		{5, "Whatsit", "Electronics", 199.99},
	}
	for _, p := range products {
		if _, err := db.Exec(`INSERT INTO products VALUES (?, ?, ?, ?)`, p...); err != nil {
			return err
		}
	}

	suppliers := [][]interface{}{
		{1, "Acme Corp", "USA", 95},
		{2, "Globex", "Germany", 88},
		{3, "Initech", "Japan", 92},
	}
	for _, s := range suppliers {
		if _, err := db.Exec(`INSERT INTO suppliers VALUES (?, ?, ?, ?)`, s...); err != nil {
			return err
		}
	}

	warehouses := [][]interface{}{
		{1, "New York", 1000},
		{2, "Berlin", 750},
		{3, "Tokyo", 500},
	}
	for _, w := range warehouses {
		if _, err := db.Exec(`INSERT INTO warehouses VALUES (?, ?, ?)`, w...); err != nil {
			return err
		}
	}
	return nil
}

func seedInventory(db *sqlx.DB, baseDate time.Time) error {
	empty, err := tableEmpty(db, "inventory")
	if err != nil || !empty {
		return err
	}

	base := day(baseDate, 0)
	inventory := [][]interface{}{
		{1, 1, 1, 200, base}, // Widget stock discrepancy: more than shipped
		{2, 2, 2, 150, base}, // missing Gadgets: less than expected
		{3, 3, 3, 100, base}, // Doodad quantity under dispute
		{4, 4, 2, 0, base},   // Thingamajigs not yet received
		{5, 5, 1, 500, base}, // suspicious Whatsit quantity
	}
	for _, i := range inventory {
		if _, err := db.Exec(`INSERT INTO inventory VALUES (?, ?, ?, ?, ?)`, i...); err != nil {
			return err
		}
	}
	return nil
}

func seedShipments(db *sqlx.DB, baseDate time.Time) error {
	empty, err := tableEmpty(db, "shipments")
	if err != nil || !empty {
		return err
	}

	base := day(baseDate, 0)
	shipments := [][]interface{}{
		// scene 1: only 150 Widgets shipped but 200 in inventory
		{1, 1, 1, 1, 150, base, base, "delivered"},
		// scene 2: Globex's shipments to Berlin
		{2, 2, 2, 2, 200, base, base, "delivered"},
		{3, 2, 2, 2, 100, base, base, "delivered"},
		{4, 2, 2, 2, 150, base, nil, "in_transit"},
		// scene 3: nothing suspicious for the Doodads yet
		{5, 3, 3, 3, 100, base, base, "delivered"},
		// scene 4: received two days before it shipped
		{6, 4, 2, 2, 50, base, day(baseDate, -2), "delivered"},
		// scene 5: a low-reliability supplier flooding New York
		{7, 5, 2, 1, 200, day(baseDate, -10), day(baseDate, -8), "delivered"},
		{8, 5, 2, 1, 200, day(baseDate, -5), day(baseDate, -4), "delivered"},
		{9, 5, 1, 1, 100, day(baseDate, -3), day(baseDate, -2), "delivered"},
	}
	for _, s := range shipments {
		if _, err := db.Exec(`INSERT INTO shipments
			(shipment_id, product_id, supplier_id, warehouse_id, quantity, shipment_date, received_date, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, s...); err != nil {
			return err
		}
	}
	return nil
}

func seedScenes(db *sqlx.DB) error {
	empty, err := tableEmpty(db, "scenes")
	if err != nil || !empty {
		return err
	}

	for _, scene := range Scenes() {
		if _, err := db.Exec(`INSERT INTO scenes (id, title, story, question, answer_sql)
			VALUES (?, ?, ?, ?, ?)`,
			scene.ID, scene.Title, scene.Story, scene.Question, scene.AnswerSQL,
		); err != nil {
			return err
		}
	}
	return nil
}

func day(base time.Time, offset int) string {
	return base.AddDate(0, 0, offset).Format("2006-01-02")
}
