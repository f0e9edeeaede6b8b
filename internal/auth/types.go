package auth

import "time"

// Status is the account state of an identity. Values match the wire format.
type Status string

const (
	StatusActive   Status = "Ativo"
	StatusInactive Status = "Inativo"
)

// Identity is a known caller that can log in. Immutable after startup.
type Identity struct {
	ID          int
	LoginCode   int
	DisplayName string
	Email       string
	SecretHash  string
	Status      Status
}

// Active reports whether the identity may authenticate.
func (i Identity) Active() bool { return i.Status == StatusActive }

// Seed is the plaintext form of an identity used to build a credential store.
type Seed struct {
	ID          int    `yaml:"id"`
	LoginCode   int    `yaml:"cod_usuario"`
	DisplayName string `yaml:"usuario"`
	Email       string `yaml:"email"`
	Secret      string `yaml:"password"`
	Status      Status `yaml:"status"`
}

// DefaultSeeds returns the identities the mock ships with.
func DefaultSeeds() []Seed {
	return []Seed{
		{ID: 1, LoginCode: 1, DisplayName: "Vanderson", Email: "vandorogerio@gmail.com", Secret: "suaSenha", Status: StatusActive},
		{ID: 2, LoginCode: 2, DisplayName: "Connectus", Email: "projetos@connectus.com.br", Secret: "suaSenha", Status: StatusActive},
		{ID: 3, LoginCode: 3, DisplayName: "TesteUser", Email: "testeuser@email.com", Secret: "teste@2024", Status: StatusActive},
		{ID: 4, LoginCode: 4, DisplayName: "MockUser", Email: "mockuser@email.com", Secret: "mockUser!45", Status: StatusActive},
		{ID: 5, LoginCode: 5, DisplayName: "NovoUsuario", Email: "novousuario@email.com", Secret: "novaSenha#789", Status: StatusActive},
	}
}

// Session is an issued access/refresh pair. Nothing about it is stored server-side.
type Session struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}
