package sqlinline

// QDeductCredits atomically deducts from a user's balance. The conditional
// WHERE clause is the only balance check in the system: zero rows back means
// the user either does not exist or cannot afford the amount.
const QDeductCredits = `--sql 47836817-d1fc-43a1-8cd6-9592aa4070e2
update users
set credits = credits - $2, updated_at = now()
where user_id = $1 and credits >= $2
returning credits;
`

const QRefundCredits = `--sql ddf39021-d4ea-40f1-8fd6-ac7ff9abf9dd
update users
set credits = credits + $2, updated_at = now()
where user_id = $1
returning credits;
`

const QSelectCredits = `--sql a35a398c-fea4-425c-9be0-792a3ba290da
select credits from users where user_id = $1;
`

const QInsertCreditTransaction = `--sql 42d06d9a-4afc-4f6c-8dfe-9aca1281fda0
insert into credit_transactions (id, user_id, amount, balance_after, type, status, description, metadata)
values (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7)
returning id;
`
