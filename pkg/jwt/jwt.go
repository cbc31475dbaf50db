package jwt

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims incluye los claims estándar JWT más la identidad explícita del actor: usuario, negocio y
// tienda por defecto. Role permite decisiones de acceso sin consultar la DB.
type Claims struct {
	jwt.RegisteredClaims
	UserID     int64  `json:"user_id"`
	BusinessID int64  `json:"business_id"`
	StoreID    int64  `json:"store_id,omitempty"`
	Role       string `json:"role"` // "admin" | "bodeguero" | "vendedor"
}

// Identity son los datos del usuario que viajan en el token.
type Identity struct {
	UserID     int64
	BusinessID int64
	StoreID    int64
	Role       string
}

// Generate genera un token JWT firmado con la identidad indicada.
func Generate(secret, issuer string, expMinutes int, id Identity) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(id.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID:     id.UserID,
		BusinessID: id.BusinessID,
		StoreID:    id.StoreID,
		Role:       id.Role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida el token y devuelve la identidad.
// Retorna error si el token es inválido, expirado o tiene firma incorrecta.
func Parse(secret, tokenString string) (Identity, error) {
	if secret == "" {
		return Identity{}, fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return Identity{}, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("claims inválidos")
	}
	if claims.BusinessID == 0 {
		return Identity{}, fmt.Errorf("token sin negocio")
	}
	return Identity{UserID: claims.UserID, BusinessID: claims.BusinessID, StoreID: claims.StoreID, Role: claims.Role}, nil
}
