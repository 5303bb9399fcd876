package config

import (
	"os"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// parseAPIKeys 는 GEMINI_API_KEY 를 맨 앞에 두고 GOOGLE_API_KEYS (없으면 GOOGLE_API_KEY) 를 뒤에 붙인다.
// 중복은 처음 나온 것만 남긴다. 키가 없으면 nil 이다.
func parseAPIKeys() []string {
	candidates := splitKeys(os.Getenv("GEMINI_API_KEY"))
	if rotated := splitKeys(os.Getenv("GOOGLE_API_KEYS")); len(rotated) > 0 {
		candidates = append(candidates, rotated...)
	} else {
		candidates = append(candidates, splitKeys(os.Getenv("GOOGLE_API_KEY"))...)
	}

	var keys []string
	for _, key := range candidates {
		if !slices.Contains(keys, key) {
			keys = append(keys, key)
		}
	}
	return keys
}

// splitKeys 는 쉼표나 공백으로 구분된 키 목록을 나눈다.
func splitKeys(value string) []string {
	return strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

func isGemini3(model string) bool {
	return strings.Contains(strings.ToLower(model), "gemini-3")
}

// envOr 는 key 가 비어 있거나 parse 에 실패하면 def 를 반환한다.
func envOr[T any](key string, def T, parse func(string) (T, error)) T {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	value, err := parse(raw)
	if err != nil {
		return def
	}
	return value
}

func getEnvString(key string, def string) string {
	return envOr(key, def, func(raw string) (string, error) { return raw, nil })
}

func getEnvInt(key string, def int) int {
	return envOr(key, def, strconv.Atoi)
}

// getEnvNonNegativeInt 는 음수를 0 으로 올린다.
func getEnvNonNegativeInt(key string, def int) int {
	return max(0, getEnvInt(key, def))
}

func getEnvFloat(key string, def float64) float64 {
	return envOr(key, def, func(raw string) (float64, error) { return strconv.ParseFloat(raw, 64) })
}

// getEnvBool 은 true/1/yes/y 만 참으로 본다. 그 외 값은 거짓이다.
func getEnvBool(key string, def bool) bool {
	return envOr(key, def, func(raw string) (bool, error) {
		switch strings.ToLower(raw) {
		case "true", "1", "yes", "y":
			return true, nil
		}
		return false, nil
	})
}

// maskSecret 은 앞뒤 두 글자만 남긴다. 네 글자 이하는 모두 가린다.
func maskSecret(value string) string {
	switch {
	case value == "":
		return "<missing>"
	case len(value) <= 4:
		return strings.Repeat("*", len(value))
	}
	return value[:2] + "***" + value[len(value)-2:]
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// readTelemetryConfig: OpenTelemetry 설정을 환경 변수에서 읽습니다.
func readTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:        getEnvBool("OTEL_ENABLED", false),
		ServiceName:    getEnvString("OTEL_SERVICE_NAME", "market-oracle"),
		ServiceVersion: getEnvString("OTEL_SERVICE_VERSION", "1.0.0"),
		Environment:    getEnvString("OTEL_ENVIRONMENT", "production"),
		OTLPEndpoint:   getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", "jaeger:4317"),
		OTLPInsecure:   getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		SampleRate:     getEnvFloat("OTEL_SAMPLE_RATE", 1.0),
	}
}
