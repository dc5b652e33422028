package db

import _ "modernc.org/sqlite"

var Schema string = `
CREATE TABLE IF NOT EXISTS examples
(
    id   INTEGER PRIMARY KEY,

    split TEXT DEFAULT 'train',

    question TEXT,
    sql TEXT,

    embedding_model TEXT DEFAULT '',
    embedding_vector BLOB,

    created_at INTEGER DEFAULT (strftime('%s', 'now')),
    updated_at INTEGER DEFAULT (strftime('%s', 'now')),

    CONSTRAINT unique_split_question UNIQUE (split, question)
);

CREATE TABLE IF NOT EXISTS epochs
(
    id   INTEGER PRIMARY KEY,

    run TEXT,
    epoch REAL,
    best_metric REAL,
    bad_epochs INTEGER,
    decision TEXT,

    created_at INTEGER DEFAULT (strftime('%s', 'now'))
);`
