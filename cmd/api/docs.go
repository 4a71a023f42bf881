package main

// @title           NF-e Distribuição API
// @version         1.0
// @description     API de consulta ao serviço NFeDistribuicaoDFe da SEFAZ

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Cabeçalho de autenticação JWT usando o esquema Bearer. Exemplo: "Bearer {token}"
