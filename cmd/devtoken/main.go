// devtoken emite un JWT firmado con JWT_SECRET para pruebas locales de la API.
//
// Uso: go run ./cmd/devtoken --user u1 --role bodeguero [--clinic <id>] [--minutes 60]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/jhoicas/clinistock-api/pkg/config"
	"github.com/jhoicas/clinistock-api/pkg/jwt"
)

func main() {
	user := pflag.String("user", "dev", "user_id del token")
	role := pflag.String("role", "admin", "rol: admin | bodeguero | compras | consulta")
	clinic := pflag.String("clinic", "", "sede por defecto del usuario")
	minutes := pflag.Int("minutes", 0, "vigencia en minutos (0 = JWT_EXPIRATION_MINUTES)")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		os.Exit(1)
	}
	exp := cfg.JWT.Expiration
	if *minutes > 0 {
		exp = *minutes
	}
	tok, err := jwt.Generate(cfg.JWT.Secret, *user, *clinic, *role, cfg.JWT.Issuer, exp)
	if err != nil {
		fmt.Fprintln(os.Stderr, "generar token:", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
