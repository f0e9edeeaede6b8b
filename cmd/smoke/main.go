package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"reflect"
	"strings"
	"time"
)

type consultation struct {
	CPFCNPJ   string          `json:"cpf_cnpj"`
	Status    int             `json:"status_code"`
	SPC       json.RawMessage `json:"dados_spc"`
	Serpro    json.RawMessage `json:"dados_serpro"`
	Message   string          `json:"msg"`
	Timestamp string          `json:"timestamp"`
}

func main() {
	base := strings.TrimRight(os.Getenv("NEWCON_BASE_URL"), "/")
	if base == "" {
		base = "http://localhost:3000"
	}
	code := envOr("NEWCON_SMOKE_USER", "3")
	secret := envOr("NEWCON_SMOKE_PASSWORD", "teste@2024")
	subject := fmt.Sprintf("9%010d", time.Now().UnixNano()%10_000_000_000)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client := &http.Client{Timeout: 5 * time.Second}

	var login struct {
		Token string `json:"token"`
	}
	call(ctx, client, http.MethodPost, base+"/login", "", map[string]string{"cod_usuario": code, "password": secret}, &login)
	if login.Token == "" {
		log.Fatal("login returned no token")
	}

	var first, second consultation
	body := map[string]string{"cpf_cnpj": subject, "consulta_opc_SN": "S"}
	call(ctx, client, http.MethodPost, base+"/valida_docs", login.Token, body, &first)
	call(ctx, client, http.MethodPost, base+"/valida_docs", login.Token, body, &second)

	if first.Message != "" || first.Timestamp != "" {
		log.Fatalf("first consultation should be fresh: %+v", first)
	}
	if second.Message == "" || second.Timestamp == "" {
		log.Fatalf("second consultation should replay within the grace period: %+v", second)
	}
	if !reflect.DeepEqual(first.SPC, second.SPC) || !reflect.DeepEqual(first.Serpro, second.Serpro) {
		log.Fatal("replayed bureau data differs from the first consultation")
	}

	var history struct {
		Total int `json:"total_consultas"`
	}
	call(ctx, client, http.MethodGet, base+"/historicoConsultaCliente?cpf_cnpj="+subject, login.Token, nil, &history)
	if history.Total != 2 {
		log.Fatalf("expected 2 consultations in history, got %d", history.Total)
	}

	fmt.Printf("smoke OK: subject=%s replayed_at=%s history=%d\n", subject, second.Timestamp, history.Total)
}

func call(ctx context.Context, client *http.Client, method, url, token string, in, out any) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			log.Fatalf("encode %s: %v", url, err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		log.Fatalf("build %s %s: %v", method, url, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("%s %s: status %d: %s", method, url, resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		log.Fatalf("decode %s: %v", url, err)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
