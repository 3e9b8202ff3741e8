package models

// This file serves as the central export point for all database models
// Import this package to access all model types

// Database schema overview:
// 1. candidates - Candidate profiles produced by the ingestion pipeline
// 2. assessment_sessions - One row per assessment run, chat or voice
// 3. turns - The ordered, turn-by-turn transcript of a session
// 4. assessment_reports - The derived report plus the HR decision
