// Package docs registra no swag a descrição OpenAPI da API de distribuição
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/login": {
            "post": {
                "description": "Verifica as credenciais configuradas e retorna um token JWT",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Autentica o operador da API",
                "parameters": [
                    {
                        "description": "Credenciais de login",
                        "name": "login",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/dto.LoginRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.LoginResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["sistema"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.HealthResponse"}}
                }
            }
        },
        "/dfe/chaves": {
            "post": {
                "security": [{"Bearer": []}],
                "description": "Consulta cada chave informada, respeitando o intervalo entre consultas",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["distribuicao"],
                "summary": "Download em lote",
                "parameters": [
                    {
                        "description": "Chaves de acesso",
                        "name": "lote",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/dto.BulkRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.BulkResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/dfe/chaves/{chave}": {
            "get": {
                "security": [{"Bearer": []}],
                "description": "Consulta a NF-e/NFC-e pela chave (consChNFe) e grava o XML localizado",
                "produces": ["application/json"],
                "tags": ["distribuicao"],
                "summary": "Consulta por chave de acesso",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Chave de acesso (44 dígitos)",
                        "name": "chave",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.KeyResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.KeyResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/dfe/documentos/{chave}": {
            "get": {
                "security": [{"Bearer": []}],
                "description": "Disponível apenas com DFE_STORAGE=postgres; xml=true inclui o XML",
                "produces": ["application/json"],
                "tags": ["historico"],
                "summary": "Documentos gravados",
                "parameters": [
                    {"type": "string", "description": "Chave de acesso (44 dígitos)", "name": "chave", "in": "path", "required": true},
                    {"type": "boolean", "description": "Inclui o XML", "name": "xml", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.StoredDocumentResponse"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "501": {"description": "Not Implemented", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/dfe/execucoes": {
            "get": {
                "security": [{"Bearer": []}],
                "description": "Disponível apenas com DFE_STORAGE=postgres",
                "produces": ["application/json"],
                "tags": ["historico"],
                "summary": "Histórico de execuções",
                "parameters": [
                    {"type": "integer", "description": "Quantidade de execuções (padrão 20)", "name": "limite", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.RunListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "501": {"description": "Not Implemented", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/dfe/nsu": {
            "get": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["distribuicao"],
                "summary": "Último NSU",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.CursorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/dfe/nsu/consultar": {
            "post": {
                "security": [{"Bearer": []}],
                "description": "Percorre os documentos do interessado a partir do último NSU salvo",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["distribuicao"],
                "summary": "Consulta por NSU",
                "parameters": [
                    {
                        "description": "Chaves procuradas e reinício do NSU",
                        "name": "consulta",
                        "in": "body",
                        "schema": {"$ref": "#/definitions/dto.ScanRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ScanResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/dto.ScanResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/dto.ScanResponse"}}
                }
            }
        }
    },
    "definitions": {
        "dto.RunResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "modo": {"type": "string"},
                "estado": {"type": "string"},
                "cstat": {"type": "string"},
                "xmotivo": {"type": "string"},
                "nsu_inicial": {"type": "string"},
                "nsu_final": {"type": "string"},
                "requisicoes": {"type": "integer"},
                "localizados": {"type": "integer"},
                "erro": {"type": "string"},
                "inicio_em": {"type": "string"},
                "fim_em": {"type": "string"}
            }
        },
        "dto.RunListResponse": {
            "type": "object",
            "properties": {
                "execucoes": {"type": "array", "items": {"$ref": "#/definitions/dto.RunResponse"}}
            }
        },
        "dto.StoredDocumentResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "chave": {"type": "string"},
                "nsu": {"type": "string"},
                "schema": {"type": "string"},
                "xml": {"type": "string"},
                "gravado_em": {"type": "string"}
            }
        },
        "distribution.BulkItem": {
            "type": "object",
            "properties": {
                "chave": {"type": "string"},
                "cstat": {"type": "string"},
                "motivo": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "dto.BulkRequest": {
            "type": "object",
            "required": ["chaves"],
            "properties": {
                "chaves": {"type": "array", "items": {"type": "string"}}
            }
        },
        "dto.BulkResponse": {
            "type": "object",
            "properties": {
                "erro": {"type": "string"},
                "falhas": {"type": "integer"},
                "invalidas": {"type": "integer"},
                "itens": {"type": "array", "items": {"$ref": "#/definitions/distribution.BulkItem"}},
                "nao_encontrados": {"type": "integer"},
                "salvos": {"type": "integer"},
                "total": {"type": "integer"}
            }
        },
        "dto.CertificateResponse": {
            "type": "object",
            "properties": {
                "titular": {"type": "string"},
                "validade": {"type": "string"},
                "vencido": {"type": "boolean"}
            }
        },
        "dto.CursorResponse": {
            "type": "object",
            "properties": {
                "ambiente": {"type": "string"},
                "cnpj": {"type": "string"},
                "nsu": {"type": "string"}
            }
        },
        "dto.DocumentResponse": {
            "type": "object",
            "properties": {
                "chave": {"type": "string"},
                "nsu": {"type": "string"},
                "resumo": {"type": "boolean"},
                "schema": {"type": "string"}
            }
        },
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "cstat": {"type": "string"},
                "details": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "dto.HealthResponse": {
            "type": "object",
            "properties": {
                "ambiente": {"type": "string"},
                "certificado": {"$ref": "#/definitions/dto.CertificateResponse"},
                "cnpj": {"type": "string"},
                "status": {"type": "string"},
                "version": {"type": "string"}
            }
        },
        "dto.KeyResponse": {
            "type": "object",
            "properties": {
                "chave": {"type": "string"},
                "cstat": {"type": "string"},
                "documento": {"$ref": "#/definitions/dto.DocumentResponse"},
                "encontrado": {"type": "boolean"},
                "estado": {"type": "string"},
                "requisicoes": {"type": "integer"},
                "run_id": {"type": "string"},
                "xmotivo": {"type": "string"}
            }
        },
        "dto.LoginRequest": {
            "type": "object",
            "required": ["password", "username"],
            "properties": {
                "password": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "dto.LoginResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "expires_at": {"type": "string"},
                "token_type": {"type": "string"}
            }
        },
        "dto.ScanRequest": {
            "type": "object",
            "properties": {
                "alvos": {"type": "array", "items": {"type": "string"}},
                "reiniciar": {"type": "boolean"}
            }
        },
        "dto.ScanResponse": {
            "type": "object",
            "properties": {
                "cstat": {"type": "string"},
                "documentos": {"type": "array", "items": {"$ref": "#/definitions/dto.DocumentResponse"}},
                "erro": {"type": "string"},
                "estado": {"type": "string"},
                "falhas_decodificacao": {"type": "integer"},
                "nsu_final": {"type": "string"},
                "nsu_inicial": {"type": "string"},
                "pendentes": {"type": "array", "items": {"type": "string"}},
                "requisicoes": {"type": "integer"},
                "run_id": {"type": "string"},
                "xmotivo": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "Bearer": {
            "description": "Cabeçalho de autenticação JWT usando o esquema Bearer. Exemplo: \"Bearer {token}\"",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "NF-e Distribuição API",
	Description:      "API de consulta ao serviço NFeDistribuicaoDFe da SEFAZ",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
