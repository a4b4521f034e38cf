package testutil

import (
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/go-sql-driver/mysql"

	"pasmino/internal/infrastructure/mysql"
)

// SetupTestDB abre la base de prueba.
// Espera una BD MySQL en localhost:3306 llamada 'pasmino_test'; si no responde el test se omite.
func SetupTestDB(t *testing.T) *sql.DB {
	dsn := "root:@tcp(localhost:3306)/pasmino_test?parseTime=true&loc=UTC&multiStatements=true&clientFoundRows=true"
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("test database not available: %v", err)
	}

	return db
}

// SetupTestTables aplica las migraciones embebidas.
func SetupTestTables(t *testing.T, db *sql.DB) {
	if err := mysql.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
}

// CleanupTestDB vacía las tablas y cierra la conexión.
func CleanupTestDB(t *testing.T, db *sql.DB) {
	if db == nil {
		return
	}

	tables := []string{
		"product_relations", "payments", "order_items", "orders",
		"stock_movements", "stock_reservations", "products", "categories", "users",
	}
	for _, table := range tables {
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}

	db.Close()
}

// InsertProduct crea un producto activo y devuelve su id.
func InsertProduct(t *testing.T, db *sql.DB, slug string, stock, reserved int) int64 {
	result, err := db.Exec(`
		INSERT INTO products (name, slug, description, price, stock, reserved_stock, is_active, is_available)
		VALUES (?, ?, '', 1500.00, ?, ?, 1, 1)`,
		"Producto "+slug, slug, stock, reserved,
	)
	if err != nil {
		t.Fatalf("failed to insert product %s: %v", slug, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		t.Fatalf("failed to read product id: %v", err)
	}
	return id
}

// InsertUser crea un usuario sincronizado y devuelve su id.
func InsertUser(t *testing.T, db *sql.DB, clerkID, role string) int64 {
	result, err := db.Exec(`INSERT INTO users (clerk_id, email, name, role) VALUES (?, ?, ?, ?)`,
		clerkID, clerkID+"@pasmino.test", clerkID, role,
	)
	if err != nil {
		t.Fatalf("failed to insert user %s: %v", clerkID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		t.Fatalf("failed to read user id: %v", err)
	}
	return id
}
